// Package alerts evalúa reglas declarativas sobre un LeadIntelligence y
// despacha las acciones configuradas.
package alerts

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AngelCh415/leadintel/internal/models"
)

var ErrAlertNotFound = errors.New("alerts: alert not found")

const DefaultEnterpriseEmployees = 500

type Engine struct {
	rules       []Rule
	submit      Submitter
	log         *slog.Logger
	now         func() time.Time
	newID       func() string
	onAlert     func(models.Alert)
	cooldown    time.Duration
	competitors map[string]struct{}
	enterprise  int

	mu     sync.RWMutex
	alerts []models.Alert
	fired  map[string]time.Time // ruleID|dominio → último disparo
}

type Option func(*Engine)

// WithCooldown suprime el mismo par regla/dominio durante d; 0 desactiva.
func WithCooldown(d time.Duration) Option {
	return func(e *Engine) { e.cooldown = d }
}

func WithCompetitors(domains []string) Option {
	return func(e *Engine) {
		for _, d := range domains {
			e.competitors[strings.ToLower(strings.TrimSpace(d))] = struct{}{}
		}
	}
}

func WithEnterpriseThreshold(employees int) Option {
	return func(e *Engine) { e.enterprise = employees }
}

func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

func WithIDs(gen func() string) Option {
	return func(e *Engine) { e.newID = gen }
}

func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.log = l }
}

func WithSubmitter(s Submitter) Option {
	return func(e *Engine) { e.submit = s }
}

// OnAlert se invoca por cada alerta guardada.
func OnAlert(f func(models.Alert)) Option {
	return func(e *Engine) { e.onAlert = f }
}

func NewEngine(rules []Rule, opts ...Option) *Engine {
	e := &Engine{
		rules:       append([]Rule(nil), rules...),
		log:         slog.Default(),
		now:         time.Now,
		newID:       uuid.NewString,
		onAlert:     func(models.Alert) {},
		competitors: map[string]struct{}{},
		enterprise:  DefaultEnterpriseEmployees,
		fired:       map[string]time.Time{},
	}
	for _, o := range opts {
		o(e)
	}
	if e.submit == nil {
		e.submit = NewDispatcher()
	}
	// una regla sin condiciones no se evalúa nunca
	kept := e.rules[:0]
	for _, r := range e.rules {
		if len(r.Conditions) == 0 {
			e.log.Warn("rule without conditions ignored", slog.String("rule", r.ID))
			continue
		}
		kept = append(kept, r)
	}
	e.rules = kept
	return e
}

func (e *Engine) Rules() []Rule {
	return append([]Rule(nil), e.rules...)
}

// Match es puro: devuelve una alerta sin ID por cada regla activa que
// cumple todas sus condiciones, en el orden de las reglas.
func (e *Engine) Match(li models.LeadIntelligence) []models.Alert {
	var out []models.Alert
	for _, r := range e.rules {
		if r.Matches(li) {
			out = append(out, e.build(r, li))
		}
	}
	return out
}

// Process evalúa, aplica el cooldown, guarda y ejecuta las acciones de cada
// regla. Un fallo de acción se loguea y no corta al resto.
func (e *Engine) Process(ctx context.Context, li models.LeadIntelligence) []models.Alert {
	now := e.now()
	var out []models.Alert
	for _, r := range e.rules {
		if !r.Matches(li) {
			continue
		}
		if e.suppressed(r.ID, li.Company.Domain, now) {
			e.log.Debug("alert suppressed", slog.String("rule", r.ID), slog.String("domain", li.Company.Domain))
			continue
		}
		a := e.build(r, li)
		a.ID = e.newID()
		a.CreatedAt = now

		for _, act := range r.Actions {
			if err := e.submit.Submit(ctx, a, act); err != nil {
				e.log.Warn("alert action failed",
					slog.String("rule", r.ID),
					slog.String("action", string(act.Kind())),
					slog.String("domain", a.Domain),
					slog.String("err", err.Error()))
				continue
			}
			a.NotificationSent = true
		}

		e.mu.Lock()
		e.alerts = append(e.alerts, a)
		e.mu.Unlock()
		e.onAlert(a)
		out = append(out, a)
	}
	return out
}

func (e *Engine) suppressed(ruleID, domain string, now time.Time) bool {
	if e.cooldown <= 0 {
		return false
	}
	key := ruleID + "|" + domain
	e.mu.Lock()
	defer e.mu.Unlock()
	if last, ok := e.fired[key]; ok && now.Sub(last) < e.cooldown {
		return true
	}
	e.fired[key] = now
	return false
}

type Filter struct {
	Type       models.AlertType
	Priority   models.Priority
	Domain     string
	UnreadOnly bool
}

// Alerts devuelve las alertas guardadas, más recientes primero.
func (e *Engine) Alerts(f Filter) []models.Alert {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := []models.Alert{}
	for i := len(e.alerts) - 1; i >= 0; i-- {
		a := e.alerts[i]
		if f.Type != "" && a.Type != f.Type {
			continue
		}
		if f.Priority != "" && a.Priority != f.Priority {
			continue
		}
		if f.Domain != "" && !strings.EqualFold(a.Domain, f.Domain) {
			continue
		}
		if f.UnreadOnly && a.Read {
			continue
		}
		out = append(out, a)
	}
	return out
}

func (e *Engine) UnreadCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	n := 0
	for _, a := range e.alerts {
		if !a.Read {
			n++
		}
	}
	return n
}

func (e *Engine) MarkRead(id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i := range e.alerts {
		if e.alerts[i].ID == id {
			e.alerts[i].Read = true
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrAlertNotFound, id)
}

func (e *Engine) build(r Rule, li models.LeadIntelligence) models.Alert {
	name := li.Company.Name
	if name == "" {
		name = li.Company.Domain
	}
	t := r.Type
	if t == "" {
		t = e.alertType(li)
	}
	title, desc := describe(t, name, li)
	return models.Alert{
		Type:        t,
		Priority:    models.PriorityFor(li.OverallScore),
		Title:       title,
		Description: desc,
		CompanyName: name,
		Domain:      li.Company.Domain,
		RuleID:      r.ID,
		LeadScore:   li.OverallScore,
		Triggers:    append([]string{}, li.Triggers...),
		Actions:     append([]string{}, li.NextActions...),
		CreatedAt:   li.UpdatedAt,
	}
}

func (e *Engine) alertType(li models.LeadIntelligence) models.AlertType {
	if _, ok := e.competitors[strings.ToLower(li.Company.Domain)]; ok {
		return models.AlertCompetitorVisit
	}
	if li.Enrichment != nil && e.enterprise > 0 && li.Enrichment.EmployeeCount >= e.enterprise {
		return models.AlertEnterpriseLead
	}
	switch {
	case li.OverallScore >= 80:
		return models.AlertHotLead
	case li.IntentScore >= 60:
		return models.AlertHighIntent
	case li.Visit.TotalVisits >= 3:
		return models.AlertReturningVisitor
	case li.OverallScore >= 60:
		return models.AlertHotLead
	}
	return models.AlertReturningVisitor
}

func describe(t models.AlertType, name string, li models.LeadIntelligence) (string, string) {
	switch t {
	case models.AlertReturningVisitor:
		return "Returning visitor: " + name,
			fmt.Sprintf("%s has visited the site %d times.", name, li.Visit.TotalVisits)
	case models.AlertHighIntent:
		return "High purchase intent: " + name,
			fmt.Sprintf("%s shows an intent score of %d.", name, li.IntentScore)
	case models.AlertCompetitorVisit:
		return "Competitor visit: " + name,
			fmt.Sprintf("A known competitor (%s) is browsing the site.", li.Company.Domain)
	case models.AlertEnterpriseLead:
		employees := 0
		if li.Enrichment != nil {
			employees = li.Enrichment.EmployeeCount
		}
		return "Enterprise lead: " + name,
			fmt.Sprintf("%s (%d employees) is engaging with the site.", name, employees)
	}
	return "Hot lead: " + name,
		fmt.Sprintf("%s reached a lead score of %d.", name, li.OverallScore)
}
