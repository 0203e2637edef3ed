package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/AngelCh415/leadintel/internal/alerts"
	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/metrics"
	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/scoring"
)

type AttributionSettings struct {
	Model           string  `yaml:"model"`
	DefaultValue    float64 `yaml:"default_value"`
	HalfLifeHours   float64 `yaml:"half_life_hours"`
	CalculatorRoute string  `yaml:"calculator_route"`
}

// Profile es el ajuste de dominio que vive en YAML: perfil de cliente ideal,
// atribución, embudo, reglas de alerta, competidores y enriquecimiento fijo.
type Profile struct {
	ICP                 scoring.Profile         `yaml:"icp"`
	Attribution         AttributionSettings     `yaml:"attribution"`
	Funnel              []metrics.Stage         `yaml:"funnel"`
	Rules               []alerts.RuleSpec       `yaml:"rules"`
	Competitors         []string                `yaml:"competitors"`
	EnterpriseEmployees int                     `yaml:"enterprise_employees"`
	Enrichment          []models.EnrichmentData `yaml:"enrichment"`
}

func DefaultProfile() Profile {
	return Profile{
		ICP: scoring.DefaultProfile(),
		Attribution: AttributionSettings{
			Model:           string(attribution.Linear),
			DefaultValue:    attribution.DefaultConversionValue,
			HalfLifeHours:   attribution.DefaultHalfLifeHours,
			CalculatorRoute: attribution.DefaultCalculatorRoute,
		},
		Funnel:              metrics.DefaultStages(),
		EnterpriseEmployees: alerts.DefaultEnterpriseEmployees,
	}
}

// LoadProfile parte de los defaults y pisa lo que traiga el archivo. Sin
// path devuelve los defaults.
func LoadProfile(path string) (Profile, error) {
	p := DefaultProfile()
	if path == "" {
		return p, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Profile{}, fmt.Errorf("read profile: %w", err)
	}
	if err := yaml.Unmarshal(b, &p); err != nil {
		return Profile{}, fmt.Errorf("parse profile %s: %w", path, err)
	}
	if _, err := p.AttributionConfig(); err != nil {
		return Profile{}, err
	}
	if _, err := p.AlertRules(); err != nil {
		return Profile{}, err
	}
	for _, st := range p.Funnel {
		if st.Name == "" {
			return Profile{}, errors.New("funnel stage without name")
		}
		for _, et := range st.EventTypes {
			if !et.Valid() {
				return Profile{}, fmt.Errorf("funnel stage %s: unknown event type %q", st.Name, et)
			}
		}
	}
	return p, nil
}

func (p Profile) AttributionConfig() (attribution.Config, error) {
	m, err := attribution.ParseModel(p.Attribution.Model)
	if err != nil {
		return attribution.Config{}, err
	}
	if p.Attribution.HalfLifeHours < 0 || p.Attribution.DefaultValue < 0 {
		return attribution.Config{}, errors.New("attribution values must not be negative")
	}
	return attribution.Config{
		CalculatorRoute: p.Attribution.CalculatorRoute,
		DefaultValue:    p.Attribution.DefaultValue,
		HalfLifeHours:   p.Attribution.HalfLifeHours,
		Model:           m,
	}, nil
}

// AlertRules construye las reglas del YAML; sin reglas usa las de fábrica.
func (p Profile) AlertRules() ([]alerts.Rule, error) {
	if len(p.Rules) == 0 {
		return alerts.DefaultRules(), nil
	}
	return alerts.BuildRules(p.Rules)
}
