package scoring

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/leadintel/internal/models"
)

var now = time.Date(2025, 8, 1, 12, 0, 0, 0, time.UTC)

func TestScoreCalculatorContactScenario(t *testing.T) {
	s := NewScorer(DefaultProfile())
	c := models.CompanyData{
		Name: "acme.com", Domain: "acme.com", Industry: "Technology", VisitCount: 5,
		PagesViewed: []string{"/", "/calculadora-valoracion", "/contacto"},
	}

	li := s.Score(c, nil, now)

	assert.Equal(t, 25, li.FitScore)
	assert.Equal(t, 80, li.IntentScore) // 2 páginas + calculadora + contacto + recurrente
	assert.GreaterOrEqual(t, li.IntentScore, 50)
	assert.Equal(t, 25+9+0+10, li.EngagementScore)
	assert.Equal(t, Overall(25, 44, 80), li.OverallScore)
	assert.Equal(t, 47, li.OverallScore)

	assert.Contains(t, li.Triggers, "Used valuation calculator")
	assert.Contains(t, li.Triggers, "Visited contact page")
	assert.Contains(t, li.Triggers, "Target industry: Technology")
	assert.Contains(t, li.Triggers, "Returning visitor (5 visits)")
	assert.Contains(t, li.NextActions, "Offer a free personalized valuation analysis")
	assert.Equal(t, "Add to nurturing sequence", li.NextActions[0])
	assert.Equal(t, now, li.UpdatedAt)
	assert.Equal(t, 5, li.Visit.TotalVisits)
}

func TestFitWithEnrichment(t *testing.T) {
	s := NewScorer(DefaultProfile())
	c := models.CompanyData{Domain: "acme.com"}
	e := &models.EnrichmentData{
		Name: "Acme Corp", Industry: "Manufacturing", Size: "201-500", Location: "Spain",
		RevenueBand: "50M-100M", EmployeeCount: 900,
		Technologies: []string{"SAP", "Salesforce", "HubSpot", "Oracle", "Microsoft Dynamics", "Slack"},
	}

	li := s.Score(c, e, now)
	assert.Equal(t, 100, li.FitScore) // 25+20+15+20+20
	assert.Equal(t, "Acme Corp", li.Company.Name)
	assert.Equal(t, "Manufacturing", li.Company.Industry)
	assert.Same(t, e, li.Enrichment)
	assert.Contains(t, li.Triggers, "Enterprise company (900 employees)")

	e.RevenueBand = "1M-10M"
	e.Technologies = []string{"sap"}
	assert.Equal(t, 25+20+15+5, s.Fit(merge(c, e), e))

	e.RevenueBand = "unknown"
	assert.Equal(t, 25+20+15+5, s.Fit(merge(c, e), e))
}

func TestFitWithoutEnrichmentUsesProfile(t *testing.T) {
	s := NewScorer(DefaultProfile())
	c := models.CompanyData{Industry: "retail", Size: "1000+", Location: "Mexico"}
	assert.Equal(t, 60, s.Fit(c, nil))
}

func TestEngagementCaps(t *testing.T) {
	s := NewScorer(DefaultProfile())
	pages := make([]string, 40)
	for i := range pages {
		pages[i] = fmt.Sprintf("/p/%d", i)
	}
	c := models.CompanyData{VisitCount: 50, PagesViewed: pages, EngagementScore: 400}
	assert.Equal(t, 30+25+25+20, s.Engagement(c))

	assert.Equal(t, 0, s.Engagement(models.CompanyData{EngagementScore: -10}))
}

func TestIntentCapsHighIntentPages(t *testing.T) {
	p := DefaultProfile()
	p.HighIntentPages = []string{"/a", "/b", "/c", "/d", "/e", "/f"}
	s := NewScorer(p)
	c := models.CompanyData{PagesViewed: []string{"/a", "/a/x", "/b", "/c", "/d", "/e", "/f"}}
	assert.Equal(t, 40, s.Intent(c))
}

func TestNextActionTiers(t *testing.T) {
	assert.Equal(t, "Call within 24 hours", nextActions(80, signals{})[0])
	assert.Equal(t, "Send tailored follow-up email within 48 hours", nextActions(60, signals{})[0])
	assert.Equal(t, "Add to nurturing sequence", nextActions(40, signals{})[0])
	assert.Equal(t, "Keep monitoring activity", nextActions(39, signals{})[0])
}

func TestOverallFormula(t *testing.T) {
	assert.Equal(t, 100, Overall(100, 100, 100))
	assert.Equal(t, 0, Overall(0, 0, 0))
	assert.Equal(t, 45, Overall(50, 40, 43)) // 20 + 12 + 12.9 = 44.9
}

func TestScoresAlwaysInRange(t *testing.T) {
	s := NewScorer(DefaultProfile())
	rng := rand.New(rand.NewSource(42))
	all := append(DefaultProfile().HighIntentPages, "/", "/blog", "/calculadora", "/contacto/gracias")

	for i := 0; i < 500; i++ {
		var pages []string
		for _, p := range all {
			if rng.Intn(2) == 0 {
				pages = append(pages, p)
			}
		}
		c := models.CompanyData{
			VisitCount:      rng.Intn(200),
			PagesViewed:     pages,
			EngagementScore: rng.Float64()*1000 - 100,
			Industry:        DefaultProfile().Industries[rng.Intn(6)],
		}
		var e *models.EnrichmentData
		if rng.Intn(2) == 0 {
			e = &models.EnrichmentData{
				Size: "201-500", Location: "Spain", RevenueBand: "100M+",
				EmployeeCount: rng.Intn(5000), Technologies: DefaultProfile().Technologies,
			}
		}
		li := s.Score(c, e, now)
		for name, v := range map[string]int{
			"fit": li.FitScore, "engagement": li.EngagementScore,
			"intent": li.IntentScore, "overall": li.OverallScore,
		} {
			require.GreaterOrEqual(t, v, 0, name)
			require.LessOrEqual(t, v, 100, name)
		}
		require.Equal(t, Overall(li.FitScore, li.EngagementScore, li.IntentScore), li.OverallScore)
	}
}

func TestScoreIsDeterministic(t *testing.T) {
	s := NewScorer(DefaultProfile())
	c := models.CompanyData{Domain: "acme.com", VisitCount: 3, PagesViewed: []string{"/contacto"}, EngagementScore: 30}
	assert.Equal(t, s.Score(c, nil, now), s.Score(c, nil, now))
}
