package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/AngelCh415/leadintel/internal/models"
)

// pesos y topes de cada sub-score
const (
	fitIndustry   = 25
	fitSize       = 20
	fitLocation   = 15
	fitTechEach   = 5
	fitTechCap    = 20
	fitRevenue    = 20
	engVisitEach  = 5
	engVisitCap   = 30
	engPageEach   = 3
	engPageCap    = 25
	engAccumCap   = 25
	engReturnEach = 2
	engReturnCap  = 20
	intPageEach   = 10
	intPageCap    = 40
	intCalculator = 30
	intContact    = 20
	intReturning  = 10
	returningMin  = 3

	weightFit        = 0.4
	weightEngagement = 0.3
	weightIntent     = 0.3
)

// Scorer es puro: mismo input, mismo LeadIntelligence.
type Scorer struct {
	p Profile
}

func NewScorer(p Profile) *Scorer { return &Scorer{p: p} }

func (s *Scorer) Profile() Profile { return s.p }

func (s *Scorer) Score(c models.CompanyData, e *models.EnrichmentData, now time.Time) models.LeadIntelligence {
	company := merge(c, e)
	fit := s.Fit(company, e)
	eng := s.Engagement(c)
	intent := s.Intent(c)
	overall := Overall(fit, eng, intent)

	sig := s.signals(company, c, e, eng)
	return models.LeadIntelligence{
		Company:    company,
		Enrichment: e,
		Visit: models.VisitData{
			FirstVisit:        c.FirstVisit,
			LastVisit:         c.LastVisit,
			TotalVisits:       c.VisitCount,
			PagesViewed:       c.PagesViewed,
			TimeOnSiteSeconds: c.TimeOnSiteSeconds,
			DeviceTypes:       nonNil(c.Devices),
			ReferralSources:   nonNil(c.Referrers),
		},
		EngagementScore: eng,
		IntentScore:     intent,
		FitScore:        fit,
		OverallScore:    overall,
		Triggers:        sig.triggers(),
		NextActions:     nextActions(overall, sig),
		UpdatedAt:       now,
	}
}

func (s *Scorer) Fit(c models.CompanyData, e *models.EnrichmentData) int {
	score := 0
	if containsFold(s.p.Industries, c.Industry) {
		score += fitIndustry
	}
	if containsFold(s.p.Sizes, c.Size) {
		score += fitSize
	}
	if containsFold(s.p.Locations, c.Location) {
		score += fitLocation
	}
	if e != nil {
		matches := 0
		for _, t := range e.Technologies {
			if containsFold(s.p.Technologies, t) {
				matches++
			}
		}
		score += capAt(matches*fitTechEach, fitTechCap)

		if floor := s.p.revenueRank(s.p.MinRevenueBand); floor >= 0 {
			if r := s.p.revenueRank(e.RevenueBand); r >= floor {
				score += fitRevenue
			}
		}
	}
	return clamp(score)
}

func (s *Scorer) Engagement(c models.CompanyData) int {
	score := capAt(c.VisitCount*engVisitEach, engVisitCap) +
		capAt(len(c.PagesViewed)*engPageEach, engPageCap) +
		capAt(int(math.Round(math.Max(c.EngagementScore, 0))), engAccumCap) +
		capAt(c.VisitCount*engReturnEach, engReturnCap)
	return clamp(score)
}

func (s *Scorer) Intent(c models.CompanyData) int {
	score := capAt(s.highIntentPages(c.PagesViewed)*intPageEach, intPageCap)
	if s.visited(c.PagesViewed, s.p.CalculatorRoute) {
		score += intCalculator
	}
	if s.visited(c.PagesViewed, s.p.ContactRoute) {
		score += intContact
	}
	if c.VisitCount >= returningMin {
		score += intReturning
	}
	return clamp(score)
}

// Overall = round(0.4·fit + 0.3·engagement + 0.3·intent) acotado a [0,100].
func Overall(fit, engagement, intent int) int {
	v := weightFit*float64(fit) + weightEngagement*float64(engagement) + weightIntent*float64(intent)
	return clamp(int(math.Round(v)))
}

// cuenta páginas de alta intención distintas (por prefijo) visitadas
func (s *Scorer) highIntentPages(pages []string) int {
	n := 0
	for _, hp := range s.p.HighIntentPages {
		for _, p := range pages {
			if hp != "" && strings.HasPrefix(p, hp) {
				n++
				break
			}
		}
	}
	return n
}

func (s *Scorer) visited(pages []string, route string) bool {
	if route == "" {
		return false
	}
	for _, p := range pages {
		if strings.Contains(p, route) {
			return true
		}
	}
	return false
}

type signals struct {
	engagement     int
	highEngagement bool
	visits         int
	calculator     bool
	contact        bool
	industry       string
	employees      int
}

func (s *Scorer) signals(company, c models.CompanyData, e *models.EnrichmentData, eng int) signals {
	sig := signals{
		engagement:     eng,
		highEngagement: eng > s.p.EngagementTrigger,
		visits:         c.VisitCount,
		calculator:     s.visited(c.PagesViewed, s.p.CalculatorRoute),
		contact:        s.visited(c.PagesViewed, s.p.ContactRoute),
	}
	if containsFold(s.p.Industries, company.Industry) {
		sig.industry = company.Industry
	}
	if e != nil && s.p.EnterpriseEmployees > 0 && e.EmployeeCount >= s.p.EnterpriseEmployees {
		sig.employees = e.EmployeeCount
	}
	return sig
}

func (sig signals) triggers() []string {
	out := []string{}
	if sig.highEngagement {
		out = append(out, fmt.Sprintf("High engagement score (%d)", sig.engagement))
	}
	if sig.visits >= returningMin {
		out = append(out, fmt.Sprintf("Returning visitor (%d visits)", sig.visits))
	}
	if sig.calculator {
		out = append(out, "Used valuation calculator")
	}
	if sig.contact {
		out = append(out, "Visited contact page")
	}
	if sig.industry != "" {
		out = append(out, "Target industry: "+sig.industry)
	}
	if sig.employees > 0 {
		out = append(out, fmt.Sprintf("Enterprise company (%d employees)", sig.employees))
	}
	return out
}

func nextActions(overall int, sig signals) []string {
	var out []string
	switch {
	case overall >= 80:
		out = []string{"Call within 24 hours", "Send personalized proposal", "Schedule meeting with a senior partner"}
	case overall >= 60:
		out = []string{"Send tailored follow-up email within 48 hours", "Share a relevant case study", "Invite to a consultation call"}
	case overall >= 40:
		out = []string{"Add to nurturing sequence", "Share industry insights content"}
	default:
		out = []string{"Keep monitoring activity", "Retarget with awareness content"}
	}
	if sig.calculator {
		out = append(out, "Offer a free personalized valuation analysis")
	}
	if sig.contact {
		out = append(out, "Check CRM for a pending contact request")
	}
	if sig.employees > 0 {
		out = append(out, "Involve an enterprise account lead")
	}
	if sig.visits >= returningMin {
		out = append(out, "Reference previously viewed services in outreach")
	}
	return out
}

// los datos enriquecidos pisan los del perfil cuando existen
func merge(c models.CompanyData, e *models.EnrichmentData) models.CompanyData {
	if e == nil {
		return c
	}
	if e.Name != "" {
		c.Name = e.Name
	}
	if e.Industry != "" {
		c.Industry = e.Industry
	}
	if e.Size != "" {
		c.Size = e.Size
	}
	if e.Location != "" {
		c.Location = e.Location
	}
	return c
}

func capAt(v, limit int) int {
	if v > limit {
		return limit
	}
	return v
}

func clamp(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
