// Package enrich completa un dominio ya resuelto con datos firmográficos de un
// proveedor externo, consultando primero la caché.
package enrich

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/AngelCh415/leadintel/internal/models"
)

var ErrNotFound = errors.New("enrich: domain not found")

// Provider es la fuente externa; Lookup puede bloquear en red y debe respetar ctx.
type Provider interface {
	Lookup(ctx context.Context, domain string) (*models.EnrichmentData, error)
}

// Cache guarda lookups exitosos por dominio.
type Cache interface {
	Get(ctx context.Context, domain string) (*models.EnrichmentData, bool, error)
	Set(ctx context.Context, domain string, data *models.EnrichmentData) error
}

// Observer recibe el resultado de cada consulta: "hit", "miss" o "error".
type Observer func(result string)

type Enricher struct {
	provider Provider
	cache    Cache
	timeout  time.Duration
	log      *slog.Logger
	observe  Observer
}

type Option func(*Enricher)

func WithTimeout(d time.Duration) Option {
	return func(e *Enricher) { e.timeout = d }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Enricher) { e.log = l }
}

func WithObserver(o Observer) Option {
	return func(e *Enricher) { e.observe = o }
}

func New(p Provider, c Cache, opts ...Option) *Enricher {
	e := &Enricher{
		provider: p,
		cache:    c,
		timeout:  5 * time.Second,
		log:      slog.Default(),
		observe:  func(string) {},
	}
	for _, o := range opts {
		o(e)
	}
	if e.cache == nil {
		e.cache = NewMemoryCache()
	}
	return e
}

// Enrich devuelve lo cacheado o consulta al proveedor con timeout. Un fallo
// devuelve nil y no se cachea, así la próxima llamada reintenta.
func (e *Enricher) Enrich(ctx context.Context, domain string) *models.EnrichmentData {
	if e == nil || domain == "" {
		return nil
	}
	domain = normDomain(domain)

	if d, ok, err := e.cache.Get(ctx, domain); err != nil {
		e.log.Warn("enrichment cache read failed", slog.String("domain", domain), slog.String("err", err.Error()))
	} else if ok {
		e.observe("hit")
		return d
	}
	if e.provider == nil {
		return nil
	}

	lctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()
	d, err := e.provider.Lookup(lctx, domain)
	if err != nil || d == nil {
		e.observe("error")
		if err != nil && !errors.Is(err, ErrNotFound) {
			e.log.Warn("enrichment lookup failed", slog.String("domain", domain), slog.String("err", err.Error()))
		}
		return nil
	}
	e.observe("miss")
	if d.Domain == "" {
		d.Domain = domain
	}
	if err := e.cache.Set(ctx, domain, d); err != nil {
		e.log.Warn("enrichment cache write failed", slog.String("domain", domain), slog.String("err", err.Error()))
	}
	return d
}

func normDomain(s string) string { return models.NormalizeDomain(s) }
