package httpx

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/leadintel/internal/alerts"
	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/ingest"
	"github.com/AngelCh415/leadintel/internal/metrics"
	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/scoring"
	"github.com/AngelCh415/leadintel/internal/store"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	reg := prometheus.NewRegistry()
	anyLead := alerts.Rule{
		ID: "any", Active: true,
		Conditions: []alerts.Condition{alerts.MustCondition(alerts.FieldVisitCount, alerts.OpGTE, alerts.Number(1))},
		Actions:    []alerts.Action{alerts.DashboardAction{}},
	}
	tr := ingest.NewTracker(store.NewMemoryStore(), attribution.NewBuilder(attribution.DefaultConfig()),
		scoring.NewScorer(scoring.DefaultProfile()), alerts.NewEngine([]alerts.Rule{anyLead}),
		ingest.WithCollectors(metrics.NewCollectors(reg)))
	log := slog.New(slog.NewJSONHandler(io.Discard, nil))
	srv := httptest.NewServer(NewRouter(log, tr, reg))
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func get(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil && resp.StatusCode == 200 {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

const journey = `[
 {"id":"1","timestamp":"2025-08-01T10:00:00Z","channel":"SEO","page_path":"/","domain":"acme.com","session_id":"s1","event_type":"page_view"},
 {"id":"2","timestamp":"2025-08-01T11:00:00Z","channel":"Paid Search","page_path":"/precios","domain":"acme.com","session_id":"s1","event_type":"page_view"},
 {"id":"3","timestamp":"2025-08-01T12:00:00Z","channel":"Direct","page_path":"/contacto","domain":"acme.com","session_id":"s1","event_type":"form_submission","value":3000}
]`

func track(t *testing.T, srv *httptest.Server) {
	var tps []json.RawMessage
	require.NoError(t, json.Unmarshal([]byte(journey), &tps))
	for _, tp := range tps {
		resp := post(t, srv.URL+"/track", string(tp))
		require.Equal(t, http.StatusAccepted, resp.StatusCode)
	}
}

func TestTrackAndReports(t *testing.T) {
	srv := newServer(t)
	track(t, srv)

	var rep metrics.AttributionReport
	require.Equal(t, 200, get(t, srv.URL+"/attribution?model=first_touch", &rep))
	assert.Equal(t, 1, rep.TotalConversions)
	assert.Equal(t, 3000.0, rep.TotalValue)
	assert.Equal(t, "SEO", rep.Channels[0].Channel)
	assert.Equal(t, 3000.0, rep.Channels[0].AttributedValue)

	require.Equal(t, 200, get(t, srv.URL+"/attribution?from=2025-08-02", &rep))
	assert.Zero(t, rep.TotalConversions)
	assert.Equal(t, 400, get(t, srv.URL+"/attribution?model=u_shaped", nil))
	assert.Equal(t, 400, get(t, srv.URL+"/attribution?to=yesterday", nil))

	var funnel metrics.FunnelReport
	require.Equal(t, 200, get(t, srv.URL+"/funnel", &funnel))
	assert.Equal(t, 1, funnel.Stages[0].Organizations)

	var stages []metrics.JourneyStage
	require.Equal(t, 200, get(t, srv.URL+"/journey", &stages))
	assert.Len(t, stages, 5)

	var paths []models.ConversionPath
	require.Equal(t, 200, get(t, srv.URL+"/paths?domain=ACME.com", &paths))
	require.Len(t, paths, 1)
	assert.Equal(t, 3, paths[0].PathLength)

	var tps []models.TouchPoint
	require.Equal(t, 200, get(t, srv.URL+"/touchpoints?domain=acme.com&to=2025-08-01T10:30:00Z", &tps))
	assert.Len(t, tps, 1)
	require.Equal(t, 200, get(t, srv.URL+"/touchpoints?to=2025-08-01", &tps))
	assert.Len(t, tps, 3)

	var lead models.LeadIntelligence
	require.Equal(t, 200, get(t, srv.URL+"/leads/acme.com", &lead))
	assert.Equal(t, 1, lead.Visit.TotalVisits)
	assert.Equal(t, 404, get(t, srv.URL+"/leads/nobody.com", nil))

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `leadintel_touchpoints_total{event_type="page_view"} 2`)
}

func TestTrackRejectsInvalid(t *testing.T) {
	srv := newServer(t)

	resp := post(t, srv.URL+"/track", `{"channel":"SEO","page_path":"/","domain":"acme.com","event_type":"page_view"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	b, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(b), "session_id")

	resp = post(t, srv.URL+"/track", `{not json`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	// id repetido: 200 y marcado como duplicado
	tp := `{"id":"x","timestamp":"2025-08-01T10:00:00Z","channel":"SEO","page_path":"/","domain":"acme.com","session_id":"s1","event_type":"page_view"}`
	assert.Equal(t, http.StatusAccepted, post(t, srv.URL+"/track", tp).StatusCode)
	assert.Equal(t, http.StatusOK, post(t, srv.URL+"/track", tp).StatusCode)
}

func TestAlertsEndpoints(t *testing.T) {
	srv := newServer(t)
	track(t, srv)

	var list []models.Alert
	require.Equal(t, 200, get(t, srv.URL+"/alerts?unread=true", &list))
	require.Len(t, list, 3) // una por touchpoint, sin cooldown
	assert.Equal(t, 400, get(t, srv.URL+"/alerts?unread=maybe", nil))

	var unread map[string]int
	require.Equal(t, 200, get(t, srv.URL+"/alerts/unread", &unread))
	assert.Equal(t, 3, unread["unread"])

	resp := post(t, srv.URL+"/alerts/"+list[0].ID+"/read", "")
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	require.Equal(t, 200, get(t, srv.URL+"/alerts/unread", &unread))
	assert.Equal(t, 2, unread["unread"])

	resp = post(t, srv.URL+"/alerts/nope/read", "")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.Equal(t, 200, get(t, srv.URL+"/alerts?priority=critical", &list))
	assert.Empty(t, list)
}

func TestHealth(t *testing.T) {
	srv := newServer(t)
	assert.Equal(t, 200, get(t, srv.URL+"/healthz", nil))
	assert.Equal(t, 200, get(t, srv.URL+"/readyz", nil))
}
