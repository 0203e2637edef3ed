package scoring

import "strings"

// Profile es el perfil de cliente ideal y las rutas que definen intención.
type Profile struct {
	Industries      []string `yaml:"industries"`
	Sizes           []string `yaml:"sizes"`
	Locations       []string `yaml:"locations"`
	Technologies    []string `yaml:"technologies"`
	RevenueBands    []string `yaml:"revenue_bands"` // de menor a mayor
	MinRevenueBand  string   `yaml:"min_revenue_band"`
	HighIntentPages []string `yaml:"high_intent_pages"`
	CalculatorRoute string   `yaml:"calculator_route"`
	ContactRoute    string   `yaml:"contact_route"`

	EngagementTrigger   int `yaml:"engagement_trigger"`
	EnterpriseEmployees int `yaml:"enterprise_employees"`
}

func DefaultProfile() Profile {
	return Profile{
		Industries:      []string{"Technology", "Manufacturing", "Financial Services", "Healthcare", "Retail", "Energy"},
		Sizes:           []string{"51-200", "201-500", "501-1000", "1000+"},
		Locations:       []string{"Spain", "Portugal", "Mexico"},
		Technologies:    []string{"salesforce", "hubspot", "sap", "microsoft dynamics", "oracle"},
		RevenueBands:    []string{"<1M", "1M-10M", "10M-50M", "50M-100M", "100M+"},
		MinRevenueBand:  "10M-50M",
		HighIntentPages: []string{"/contacto", "/calculadora-valoracion", "/servicios", "/precios", "/casos-de-exito"},
		CalculatorRoute: "/calculadora",
		ContactRoute:    "/contacto",

		EngagementTrigger:   50,
		EnterpriseEmployees: 500,
	}
}

func containsFold(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, x := range list {
		if strings.EqualFold(strings.TrimSpace(x), strings.TrimSpace(v)) {
			return true
		}
	}
	return false
}

// rango de la banda de ingresos; -1 si no se conoce
func (p Profile) revenueRank(band string) int {
	for i, b := range p.RevenueBands {
		if strings.EqualFold(b, strings.TrimSpace(band)) {
			return i
		}
	}
	return -1
}
