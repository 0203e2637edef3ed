package alerts

import (
	"errors"
	"fmt"

	"github.com/AngelCh415/leadintel/internal/models"
)

// Rule aplica AND sobre todas sus condiciones.
type Rule struct {
	ID         string
	Name       string
	Conditions []Condition
	Actions    []Action
	Active     bool
	Type       models.AlertType // opcional, si no se deriva del lead
}

func (r Rule) Matches(li models.LeadIntelligence) bool {
	if !r.Active || len(r.Conditions) == 0 {
		return false
	}
	for _, c := range r.Conditions {
		if !c.Eval(li) {
			return false
		}
	}
	return true
}

// RuleSpec es la forma serializada (YAML/JSON) de una regla.
type RuleSpec struct {
	ID         string          `yaml:"id" json:"id"`
	Name       string          `yaml:"name" json:"name"`
	Active     *bool           `yaml:"active" json:"active"`
	Type       string          `yaml:"type" json:"type"`
	Conditions []ConditionSpec `yaml:"conditions" json:"conditions"`
	Actions    []ActionSpec    `yaml:"actions" json:"actions"`
}

type ConditionSpec struct {
	Field    string `yaml:"field" json:"field"`
	Operator string `yaml:"operator" json:"operator"`
	Value    any    `yaml:"value" json:"value"`
}

type ActionSpec struct {
	Type       string   `yaml:"type" json:"type"`
	Recipients []string `yaml:"recipients" json:"recipients"`
	TemplateID string   `yaml:"template_id" json:"template_id"`
	Channel    string   `yaml:"channel" json:"channel"`
	WebhookURL string   `yaml:"webhook_url" json:"webhook_url"`
	URL        string   `yaml:"url" json:"url"`
	Secret     string   `yaml:"secret" json:"secret"`
}

// Build valida la definición y devuelve la regla tipada.
func (s RuleSpec) Build() (Rule, error) {
	if s.ID == "" {
		return Rule{}, errors.New("rule id is required")
	}
	r := Rule{ID: s.ID, Name: s.Name, Active: s.Active == nil || *s.Active}
	if r.Name == "" {
		r.Name = s.ID
	}
	if s.Type != "" {
		t := models.AlertType(s.Type)
		if !validType(t) {
			return Rule{}, fmt.Errorf("rule %s: unknown alert type %q", s.ID, s.Type)
		}
		r.Type = t
	}
	if len(s.Conditions) == 0 {
		return Rule{}, fmt.Errorf("rule %s: at least one condition is required", s.ID)
	}
	for i, cs := range s.Conditions {
		v, err := toValue(cs.Value)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s condition %d: %w", s.ID, i, err)
		}
		c, err := NewCondition(Field(cs.Field), Operator(cs.Operator), v)
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s condition %d: %w", s.ID, i, err)
		}
		r.Conditions = append(r.Conditions, c)
	}
	for i, as := range s.Actions {
		a, err := as.Build()
		if err != nil {
			return Rule{}, fmt.Errorf("rule %s action %d: %w", s.ID, i, err)
		}
		r.Actions = append(r.Actions, a)
	}
	return r, nil
}

func (s ActionSpec) Build() (Action, error) {
	switch ActionKind(s.Type) {
	case KindEmail:
		if len(s.Recipients) == 0 {
			return nil, errors.New("email action needs recipients")
		}
		return EmailAction{Recipients: s.Recipients, TemplateID: s.TemplateID}, nil
	case KindSlack:
		return SlackAction{Channel: s.Channel, WebhookURL: s.WebhookURL}, nil
	case KindWebhook:
		if s.URL == "" {
			return nil, errors.New("webhook action needs url")
		}
		return WebhookAction{URL: s.URL, Secret: s.Secret}, nil
	case KindDashboard:
		return DashboardAction{}, nil
	}
	return nil, fmt.Errorf("unknown action type %q", s.Type)
}

func BuildRules(specs []RuleSpec) ([]Rule, error) {
	out := make([]Rule, 0, len(specs))
	seen := map[string]struct{}{}
	for _, s := range specs {
		if _, dup := seen[s.ID]; dup {
			return nil, fmt.Errorf("duplicate rule id %q", s.ID)
		}
		seen[s.ID] = struct{}{}
		r, err := s.Build()
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// toValue acepta lo que entrega un decoder YAML/JSON.
func toValue(v any) (Value, error) {
	switch x := v.(type) {
	case int:
		return Number(float64(x)), nil
	case int64:
		return Number(float64(x)), nil
	case uint64:
		return Number(float64(x)), nil
	case float64:
		return Number(x), nil
	case string:
		return String(x), nil
	case []string:
		return List(x...), nil
	case []any:
		list := make([]string, 0, len(x))
		for _, it := range x {
			switch e := it.(type) {
			case string:
				list = append(list, e)
			case int, int64, uint64, float64:
				n, _ := toValue(e)
				list = append(list, n.String())
			default:
				return Value{}, fmt.Errorf("unsupported list element %T", it)
			}
		}
		return List(list...), nil
	case nil:
		return Value{}, errors.New("value is required")
	}
	return Value{}, fmt.Errorf("unsupported value type %T", v)
}

func validType(t models.AlertType) bool {
	switch t {
	case models.AlertHotLead, models.AlertReturningVisitor, models.AlertHighIntent,
		models.AlertCompetitorVisit, models.AlertEnterpriseLead:
		return true
	}
	return false
}

// DefaultRules son las reglas de fábrica cuando no hay perfil cargado.
func DefaultRules() []Rule {
	return []Rule{
		{
			ID:         "hot-lead",
			Name:       "Hot lead",
			Active:     true,
			Conditions: []Condition{MustCondition(FieldLeadScore, OpGTE, Number(80))},
			Actions:    []Action{DashboardAction{}},
		},
		{
			ID:     "calculator-returning",
			Name:   "Returning visitor using the calculator",
			Active: true,
			Type:   models.AlertHighIntent,
			Conditions: []Condition{
				MustCondition(FieldVisitCount, OpGTE, Number(3)),
				MustCondition(FieldPageVisits, OpContains, String("/calculadora")),
			},
			Actions: []Action{DashboardAction{}},
		},
	}
}
