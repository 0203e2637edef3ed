package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AngelCh415/leadintel/internal/alerts"
	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/ingest"
	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/utils"
)

const maxBody = 1 << 20

func NewRouter(log *slog.Logger, tr *ingest.Tracker, gatherer prometheus.Gatherer) http.Handler {
	mux := chi.NewRouter()
	mux.Use(utils.RequestID)
	mux.Use(utils.Logger(log))

	mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ok")) })
	mux.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); w.Write([]byte("ready")) })
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	mux.Post("/track", func(w http.ResponseWriter, r *http.Request) {
		var tp models.TouchPoint
		if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody)).Decode(&tp); err != nil {
			http.Error(w, "bad json: "+err.Error(), 400)
			return
		}
		if tp.ID == "" {
			tp.ID = uuid.NewString()
		}
		if tp.Timestamp.IsZero() {
			tp.Timestamp = time.Now().UTC()
		}
		res, err := tr.Ingest(r.Context(), tp)
		var ite *models.InvalidTouchPointError
		if errors.As(err, &ite) {
			http.Error(w, err.Error(), 400)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		status := http.StatusAccepted
		if res.Duplicate {
			status = http.StatusOK
		}
		writeJSON(w, status, map[string]any{"id": tp.ID, "result": res})
	})

	mux.Get("/attribution", func(w http.ResponseWriter, r *http.Request) {
		m := attribution.Linear
		if q := r.URL.Query().Get("model"); q != "" {
			var err error
			if m, err = attribution.ParseModel(q); err != nil {
				http.Error(w, err.Error(), 400)
				return
			}
		}
		dr, err := dateRange(r)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		writeJSON(w, 200, tr.AttributionReport(m, dr))
	})

	mux.Get("/funnel", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, tr.FunnelAnalysis())
	})

	mux.Get("/journey", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, tr.CustomerJourneyMap())
	})

	mux.Get("/paths", func(w http.ResponseWriter, r *http.Request) {
		if d := r.URL.Query().Get("domain"); d != "" {
			writeJSON(w, 200, nonNil(tr.ConversionPathsFor(d)))
			return
		}
		writeJSON(w, 200, nonNil(tr.ConversionPaths()))
	})

	mux.Get("/touchpoints", func(w http.ResponseWriter, r *http.Request) {
		dr, err := dateRange(r)
		if err != nil {
			http.Error(w, err.Error(), 400)
			return
		}
		var from, to time.Time
		if dr != nil {
			from, to = dr.From, dr.To
		}
		writeJSON(w, 200, nonNil(tr.TouchPoints(r.URL.Query().Get("domain"), from, to)))
	})

	mux.Get("/alerts", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		f := alerts.Filter{
			Type:     models.AlertType(q.Get("type")),
			Priority: models.Priority(q.Get("priority")),
			Domain:   q.Get("domain"),
		}
		if u := q.Get("unread"); u != "" {
			b, err := strconv.ParseBool(u)
			if err != nil {
				http.Error(w, "bad unread flag", 400)
				return
			}
			f.UnreadOnly = b
		}
		writeJSON(w, 200, tr.Alerts(f))
	})

	mux.Get("/alerts/unread", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, map[string]int{"unread": tr.UnreadAlertsCount()})
	})

	mux.Post("/alerts/{id}/read", func(w http.ResponseWriter, r *http.Request) {
		err := tr.MarkAlertRead(chi.URLParam(r, "id"))
		if errors.Is(err, alerts.ErrAlertNotFound) {
			http.Error(w, err.Error(), 404)
			return
		}
		if err != nil {
			http.Error(w, err.Error(), 500)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	mux.Get("/leads", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, 200, tr.AllLeadIntelligence())
	})

	mux.Get("/leads/{domain}", func(w http.ResponseWriter, r *http.Request) {
		li, ok := tr.LeadIntelligence(chi.URLParam(r, "domain"))
		if !ok {
			http.Error(w, "lead not found", 404)
			return
		}
		writeJSON(w, 200, li)
	})

	return mux
}

// from/to en YYYY-MM-DD o RFC3339; "to" en fecha simple incluye el día entero.
func dateRange(r *http.Request) (*models.DateRange, error) {
	q := r.URL.Query()
	if q.Get("from") == "" && q.Get("to") == "" {
		return nil, nil
	}
	var dr models.DateRange
	var err error
	if v := q.Get("from"); v != "" {
		if dr.From, _, err = parseTime(v); err != nil {
			return nil, errors.New("bad from")
		}
	}
	if v := q.Get("to"); v != "" {
		var dayOnly bool
		if dr.To, dayOnly, err = parseTime(v); err != nil {
			return nil, errors.New("bad to")
		}
		if dayOnly {
			dr.To = dr.To.Add(24*time.Hour - time.Nanosecond)
		}
	}
	return &dr, nil
}

func parseTime(v string) (time.Time, bool, error) {
	if t, err := time.Parse("2006-01-02", v); err == nil {
		return t, true, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	return t, false, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", " ")
	enc.Encode(v)
}
