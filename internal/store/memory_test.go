package store

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/leadintel/internal/models"
)

var t0 = time.Date(2025, 8, 1, 8, 0, 0, 0, time.UTC)

func tp(id, session, page string, et models.EventType, min int) models.TouchPoint {
	return models.TouchPoint{
		ID: id, Timestamp: t0.Add(time.Duration(min) * time.Minute), Channel: "SEO",
		PagePath: page, Domain: "acme.com", SessionID: session, EventType: et,
	}
}

func TestRecordUpdatesProfile(t *testing.T) {
	st := NewMemoryStore()
	first := tp("1", "s1", "/", models.EventPageView, 10)
	first.Device = "desktop"
	first.Referrer = "google.com"
	first.DurationSeconds = 40

	for _, x := range []models.TouchPoint{
		first,
		tp("2", "s1", "/servicios", models.EventPageView, 12),
		tp("3", "s2", "/", models.EventDownload, 0), // otra sesión, anterior
		tp("4", "s2", "/contacto", models.EventContact, 30),
	} {
		ok, err := st.Record(x)
		require.NoError(t, err)
		require.True(t, ok)
	}

	c, ok := st.Company("acme.com")
	require.True(t, ok)
	assert.Equal(t, 2, c.VisitCount)
	assert.Equal(t, t0, c.FirstVisit)
	assert.Equal(t, t0.Add(30*time.Minute), c.LastVisit)
	assert.Equal(t, []string{"/", "/contacto", "/servicios"}, c.PagesViewed)
	assert.Equal(t, 1+1+5+20.0, c.EngagementScore)
	assert.Equal(t, []string{"desktop"}, c.Devices)
	assert.Equal(t, []string{"google.com"}, c.Referrers)
	assert.Equal(t, 40, c.TimeOnSiteSeconds)

	_, ok = st.Company("other.com")
	assert.False(t, ok)
}

func TestRecordRejectsInvalidAndDuplicates(t *testing.T) {
	st := NewMemoryStore()

	bad := tp("1", "", "/", models.EventPageView, 0)
	ok, err := st.Record(bad)
	assert.False(t, ok)
	var ite *models.InvalidTouchPointError
	require.True(t, errors.As(err, &ite))
	assert.Equal(t, "session_id", ite.Field)
	assert.Empty(t, st.AllTouchPoints())
	assert.Empty(t, st.Companies())

	good := tp("1", "s1", "/", models.EventPageView, 0)
	ok, err = st.Record(good)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = st.Record(good)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Len(t, st.AllTouchPoints(), 1)
}

func TestTouchPointsFilter(t *testing.T) {
	st := NewMemoryStore()
	st.Record(tp("1", "s1", "/", models.EventPageView, 0))
	st.Record(tp("2", "s1", "/a", models.EventPageView, 10))
	other := tp("3", "s9", "/", models.EventPageView, 5)
	other.Domain = "beta.io"
	st.Record(other)

	assert.Len(t, st.TouchPoints("acme.com", time.Time{}, time.Time{}), 2)
	assert.Len(t, st.TouchPoints("", t0.Add(5*time.Minute), time.Time{}), 2)
	assert.Len(t, st.TouchPoints("acme.com", time.Time{}, t0.Add(5*time.Minute)), 1)
	assert.Equal(t, []string{"acme.com", "beta.io"}, []string{st.Companies()[0].Domain, st.Companies()[1].Domain})
}

func TestLeadsOrderAndPaths(t *testing.T) {
	st := NewMemoryStore()
	st.PutLead(models.LeadIntelligence{Company: models.CompanyData{Domain: "b.com"}, OverallScore: 50})
	st.PutLead(models.LeadIntelligence{Company: models.CompanyData{Domain: "a.com"}, OverallScore: 50})
	st.PutLead(models.LeadIntelligence{Company: models.CompanyData{Domain: "c.com"}, OverallScore: 90})

	leads := st.Leads()
	require.Len(t, leads, 3)
	assert.Equal(t, "c.com", leads[0].Company.Domain)
	assert.Equal(t, "a.com", leads[1].Company.Domain)

	st.AddPath(models.ConversionPath{Domain: "a.com"})
	st.AddPath(models.ConversionPath{Domain: "b.com"})
	st.AddPath(models.ConversionPath{Domain: "a.com"})
	assert.Len(t, st.Paths(), 3)
	assert.Len(t, st.PathsFor("a.com"), 2)
}

func TestRecordConcurrent(t *testing.T) {
	st := NewMemoryStore()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			st.Record(tp(string(rune('A'+i)), "s1", "/", models.EventPageView, i))
		}(i)
	}
	wg.Wait()
	assert.Len(t, st.AllTouchPoints(), 50)
	c, _ := st.Company("acme.com")
	assert.Equal(t, 1, c.VisitCount)
}
