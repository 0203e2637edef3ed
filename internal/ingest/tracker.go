// Package ingest contiene el Tracker: el objeto dueño del estado que recibe
// touchpoints y encadena store, rutas de conversión, scoring y alertas.
package ingest

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AngelCh415/leadintel/internal/alerts"
	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/enrich"
	"github.com/AngelCh415/leadintel/internal/metrics"
	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/scoring"
	"github.com/AngelCh415/leadintel/internal/store"
)

type Tracker struct {
	mu      sync.Mutex // un ingest a la vez
	st      *store.MemoryStore
	builder *attribution.Builder
	enr     *enrich.Enricher
	scorer  *scoring.Scorer
	engine  *alerts.Engine
	reports *metrics.Service
	col     *metrics.Collectors
	log     *slog.Logger
	now     func() time.Time
}

type Option func(*Tracker)

// WithEnricher habilita el enriquecimiento; sin él el fit sale sólo del perfil.
func WithEnricher(e *enrich.Enricher) Option {
	return func(t *Tracker) { t.enr = e }
}

func WithCollectors(c *metrics.Collectors) Option {
	return func(t *Tracker) { t.col = c }
}

func WithLogger(l *slog.Logger) Option {
	return func(t *Tracker) { t.log = l }
}

func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

func WithStages(stages []metrics.Stage) Option {
	return func(t *Tracker) { t.reports = metrics.NewService(t.st, t.builder, stages) }
}

func NewTracker(st *store.MemoryStore, b *attribution.Builder, s *scoring.Scorer, e *alerts.Engine, opts ...Option) *Tracker {
	t := &Tracker{
		st:      st,
		builder: b,
		scorer:  s,
		engine:  e,
		log:     slog.Default(),
		now:     time.Now,
	}
	t.reports = metrics.NewService(st, b, nil)
	for _, o := range opts {
		o(t)
	}
	if t.col == nil {
		t.col = metrics.NewCollectors(nil)
	}
	return t
}

// Result resume lo que produjo un ingest.
type Result struct {
	Duplicate bool                    `json:"duplicate"`
	Path      *models.ConversionPath  `json:"conversion_path,omitempty"`
	Lead      models.LeadIntelligence `json:"lead"`
	Alerts    []models.Alert          `json:"alerts"`
}

// Ingest es la única entrada de eventos. Un touchpoint inválido se rechaza
// con *models.InvalidTouchPointError sin tocar el estado; un id repetido no
// hace nada.
func (t *Tracker) Ingest(ctx context.Context, tp models.TouchPoint) (Result, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tp.Domain = models.NormalizeDomain(tp.Domain)
	added, err := t.st.Record(tp)
	if err != nil {
		t.col.Rejected.Inc()
		return Result{}, err
	}
	if !added {
		return Result{Duplicate: true, Alerts: []models.Alert{}}, nil
	}
	t.col.TouchPoints.WithLabelValues(string(tp.EventType)).Inc()

	res := Result{Alerts: []models.Alert{}}
	if t.builder.IsConversion(tp) {
		if p, ok := t.builder.Build(tp, t.st.TouchPoints(tp.Domain, time.Time{}, time.Time{})); ok {
			t.st.AddPath(p)
			t.col.Conversions.WithLabelValues(tp.Channel).Inc()
			res.Path = &p
			t.log.Info("conversion path built",
				slog.String("domain", p.Domain),
				slog.Int("length", p.PathLength),
				slog.Float64("value", p.TotalValue))
		}
	}

	company, _ := t.st.Company(tp.Domain)
	var e *models.EnrichmentData
	if t.enr != nil {
		e = t.enr.Enrich(ctx, tp.Domain)
	}
	res.Lead = t.scorer.Score(company, e, t.now())
	t.st.PutLead(res.Lead)
	t.col.LeadScore.Observe(float64(res.Lead.OverallScore))

	if emitted := t.engine.Process(ctx, res.Lead); len(emitted) > 0 {
		res.Alerts = emitted
	}
	return res, nil
}

func (t *Tracker) AttributionReport(m attribution.Model, r *models.DateRange) metrics.AttributionReport {
	return t.reports.AttributionReport(m, r)
}

func (t *Tracker) FunnelAnalysis() metrics.FunnelReport { return t.reports.FunnelAnalysis() }

func (t *Tracker) CustomerJourneyMap() []metrics.JourneyStage {
	return t.reports.CustomerJourneyMap()
}

func (t *Tracker) ConversionPaths() []models.ConversionPath { return t.st.Paths() }

func (t *Tracker) ConversionPathsFor(domain string) []models.ConversionPath {
	return t.st.PathsFor(models.NormalizeDomain(domain))
}

func (t *Tracker) AllTouchPoints() []models.TouchPoint { return t.st.AllTouchPoints() }

func (t *Tracker) TouchPoints(domain string, from, to time.Time) []models.TouchPoint {
	if domain != "" {
		domain = models.NormalizeDomain(domain)
	}
	return t.st.TouchPoints(domain, from, to)
}

func (t *Tracker) Alerts(f alerts.Filter) []models.Alert { return t.engine.Alerts(f) }

func (t *Tracker) UnreadAlertsCount() int { return t.engine.UnreadCount() }

func (t *Tracker) MarkAlertRead(id string) error { return t.engine.MarkRead(id) }

func (t *Tracker) LeadIntelligence(domain string) (models.LeadIntelligence, bool) {
	return t.st.Lead(models.NormalizeDomain(domain))
}

func (t *Tracker) AllLeadIntelligence() []models.LeadIntelligence { return t.st.Leads() }
