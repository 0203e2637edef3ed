package attribution

import (
	"sort"
	"strings"

	"github.com/AngelCh415/leadintel/internal/models"
)

const (
	DefaultConversionValue = 1000
	DefaultHalfLifeHours   = 7 * 24
	DefaultCalculatorRoute = "/calculadora"
)

type Config struct {
	CalculatorRoute string
	DefaultValue    float64
	HalfLifeHours   float64
	Model           Model
}

func DefaultConfig() Config {
	return Config{
		CalculatorRoute: DefaultCalculatorRoute,
		DefaultValue:    DefaultConversionValue,
		HalfLifeHours:   DefaultHalfLifeHours,
		Model:           Linear,
	}
}

type Builder struct {
	cfg Config
}

func NewBuilder(cfg Config) *Builder {
	if cfg.DefaultValue <= 0 {
		cfg.DefaultValue = DefaultConversionValue
	}
	if cfg.HalfLifeHours <= 0 {
		cfg.HalfLifeHours = DefaultHalfLifeHours
	}
	if cfg.Model == "" {
		cfg.Model = Linear
	}
	return &Builder{cfg: cfg}
}

func (b *Builder) Config() Config { return b.cfg }

// IsConversion indica si el evento dispara la construcción de una ruta.
func (b *Builder) IsConversion(tp models.TouchPoint) bool {
	switch tp.EventType {
	case models.EventFormSubmission, models.EventContact:
		return true
	case models.EventCalculatorUse:
		return b.cfg.CalculatorRoute != "" && strings.Contains(tp.PagePath, b.cfg.CalculatorRoute)
	}
	return false
}

// Build arma la ruta del dominio de trigger con los touchpoints dados (puede
// venir desordenado). ok=false si no hay touchpoints previos.
func (b *Builder) Build(trigger models.TouchPoint, domainTPs []models.TouchPoint) (models.ConversionPath, bool) {
	path := make([]models.TouchPoint, 0, len(domainTPs))
	for _, tp := range domainTPs {
		if tp.ID == trigger.ID {
			continue
		}
		if tp.Domain == trigger.Domain && !tp.Timestamp.After(trigger.Timestamp) {
			path = append(path, tp)
		}
	}
	if len(path) == 0 {
		return models.ConversionPath{}, false
	}
	SortTouchPoints(path)
	// la conversión siempre cierra la ruta
	path = append(path, trigger)

	value := b.cfg.DefaultValue
	if trigger.Value != nil {
		value = *trigger.Value
	}
	return models.ConversionPath{
		Domain:                trigger.Domain,
		TouchPoints:           path,
		Conversion:            trigger,
		TotalValue:            value,
		PathLength:            len(path),
		TimeToConversionHours: trigger.Timestamp.Sub(path[0].Timestamp).Hours(),
		Channels:              distinctChannels(path),
		Model:                 string(b.cfg.Model),
		Attribution:           Attribute(path, value, b.cfg.Model, b.cfg.HalfLifeHours),
	}, true
}

// Reattribute recalcula el mapa de atribución de una ruta con otro modelo.
func (b *Builder) Reattribute(p models.ConversionPath, m Model) map[string]float64 {
	return Attribute(p.TouchPoints, p.TotalValue, m, b.cfg.HalfLifeHours)
}

// orden determinista: timestamp, luego id
func SortTouchPoints(tps []models.TouchPoint) {
	sort.SliceStable(tps, func(i, j int) bool {
		if !tps[i].Timestamp.Equal(tps[j].Timestamp) {
			return tps[i].Timestamp.Before(tps[j].Timestamp)
		}
		return tps[i].ID < tps[j].ID
	})
}

func distinctChannels(tps []models.TouchPoint) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, tp := range tps {
		if _, ok := seen[tp.Channel]; ok {
			continue
		}
		seen[tp.Channel] = struct{}{}
		out = append(out, tp.Channel)
	}
	return out
}
