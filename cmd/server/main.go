package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/AngelCh415/leadintel/internal/alerts"
	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/config"
	"github.com/AngelCh415/leadintel/internal/enrich"
	"github.com/AngelCh415/leadintel/internal/httpx"
	"github.com/AngelCh415/leadintel/internal/ingest"
	"github.com/AngelCh415/leadintel/internal/metrics"
	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/scoring"
	"github.com/AngelCh415/leadintel/internal/store"
	"github.com/AngelCh415/leadintel/internal/utils"
)

func main() {
	cfg := config.FromEnv()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	prof, err := config.LoadProfile(cfg.ProfilePath)
	if err != nil {
		logger.Error("profile error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	attrCfg, err := prof.AttributionConfig()
	if err != nil {
		logger.Error("attribution config error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	rules, err := prof.AlertRules()
	if err != nil {
		logger.Error("alert rules error", slog.String("err", err.Error()))
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	col := metrics.NewCollectors(reg)

	httpc := utils.NewHTTPClient(cfg.HTTPTimeout)

	// enriquecimiento: API externa si hay URL, si no la tabla del perfil
	var provider enrich.Provider = enrich.NewStaticProvider(prof.Enrichment)
	if cfg.EnrichmentURL != "" {
		provider = enrich.NewHTTPProvider(httpc, cfg.EnrichmentURL, cfg.EnrichmentAPIKey, cfg.EnrichmentRPS)
	}
	var cache enrich.Cache
	if cfg.RedisURL != "" {
		rc, err := enrich.NewRedisCacheFromURL(cfg.RedisURL, cfg.EnrichmentTTL)
		if err != nil {
			logger.Warn("redis unavailable, using memory cache", slog.String("err", err.Error()))
		} else {
			defer rc.Close()
			cache = rc
		}
	}
	enricher := enrich.New(provider, cache,
		enrich.WithTimeout(cfg.EnrichmentTimeout),
		enrich.WithLogger(logger),
		enrich.WithObserver(func(r string) { col.Enrichment.WithLabelValues(r).Inc() }))

	dispatcher := alerts.NewDispatcher(
		alerts.WithEmail(alerts.EmailSink{Addr: cfg.SMTPAddr, From: cfg.SMTPFrom, Username: cfg.SMTPUser, Password: cfg.SMTPPassword}),
		alerts.WithSlack(alerts.SlackSink{Client: httpc, WebhookURL: cfg.SlackWebhookURL}),
		alerts.WithWebhook(alerts.WebhookSink{Client: httpc, Secret: cfg.WebhookSecret}),
		alerts.WithFailureFunc(func(a models.Alert, act alerts.Action, err error) {
			col.ActionFailures.WithLabelValues(string(act.Kind())).Inc()
		}))
	queue := alerts.NewQueue(dispatcher, cfg.NotifyQueueSize, logger)
	queue.Start(context.Background())

	engine := alerts.NewEngine(rules,
		alerts.WithSubmitter(queue),
		alerts.WithCooldown(cfg.AlertCooldown),
		alerts.WithCompetitors(prof.Competitors),
		alerts.WithEnterpriseThreshold(prof.EnterpriseEmployees),
		alerts.WithLogger(logger),
		alerts.OnAlert(func(a models.Alert) {
			col.Alerts.WithLabelValues(string(a.Type), string(a.Priority)).Inc()
			logger.Info("alert", slog.String("id", a.ID), slog.String("type", string(a.Type)), slog.String("domain", a.Domain))
		}))

	st := store.NewMemoryStore()
	tr := ingest.NewTracker(st, attribution.NewBuilder(attrCfg), scoring.NewScorer(prof.ICP), engine,
		ingest.WithEnricher(enricher),
		ingest.WithCollectors(col),
		ingest.WithLogger(logger),
		ingest.WithStages(prof.Funnel))

	r := httpx.NewRouter(logger, tr, reg)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown error", slog.String("err", err.Error()))
		}
	}()

	logger.Info("starting server", slog.String("port", cfg.Port), slog.Int("rules", len(rules)))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.String("err", err.Error()))
		os.Exit(1)
	}
	queue.Stop()
	logger.Info("server stopped")
}
