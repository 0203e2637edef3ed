package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/leadintel/internal/alerts"
	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/models"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "HTTP_TIMEOUT_SECONDS", "LOG_LEVEL", "ALERT_COOLDOWN", "ENRICHMENT_RPS", "NOTIFY_QUEUE_SIZE"} {
		t.Setenv(k, "")
	}
	cfg := FromEnv()
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, 15*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, 24*time.Hour, cfg.AlertCooldown)
	assert.Equal(t, 5.0, cfg.EnrichmentRPS)
	assert.Equal(t, 256, cfg.NotifyQueueSize)
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("HTTP_TIMEOUT_SECONDS", "3")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("ALERT_COOLDOWN", "0")
	t.Setenv("ENRICHMENT_TIMEOUT", "750ms")
	t.Setenv("ENRICHMENT_RPS", "2.5")
	t.Setenv("REDIS_URL", "redis://localhost:6379/0")

	cfg := FromEnv()
	assert.Equal(t, "9090", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.HTTPTimeout)
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Zero(t, cfg.AlertCooldown)
	assert.Equal(t, 750*time.Millisecond, cfg.EnrichmentTimeout)
	assert.Equal(t, 2.5, cfg.EnrichmentRPS)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RedisURL)

	t.Setenv("ALERT_COOLDOWN", "soon")
	assert.Equal(t, 24*time.Hour, FromEnv().AlertCooldown)
}

func TestLoadProfileDefaults(t *testing.T) {
	p, err := LoadProfile("")
	require.NoError(t, err)
	ac, err := p.AttributionConfig()
	require.NoError(t, err)
	assert.Equal(t, attribution.Linear, ac.Model)
	assert.Equal(t, 1000.0, ac.DefaultValue)

	rules, err := p.AlertRules()
	require.NoError(t, err)
	assert.Equal(t, alerts.DefaultRules()[0].ID, rules[0].ID)
	assert.Len(t, p.Funnel, 4)
}

const profileYAML = `
icp:
  industries: [Legal, Technology]
  min_revenue_band: 1M-10M
attribution:
  model: time_decay
  half_life_hours: 48
funnel:
  - name: Blog
    pages: [/blog]
  - name: Contact
    event_types: [contact, form_submission]
rules:
  - id: vip
    conditions:
      - {field: leadScore, operator: gt, value: 70}
    actions:
      - {type: slack, channel: "#vip"}
competitors: [rival.com]
enrichment:
  - domain: acme.com
    name: Acme
    employee_count: 1200
    technologies: [sap]
`

func TestLoadProfileFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	require.NoError(t, os.WriteFile(path, []byte(profileYAML), 0o600))

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"Legal", "Technology"}, p.ICP.Industries)
	assert.Equal(t, "1M-10M", p.ICP.MinRevenueBand)
	assert.Equal(t, "/contacto", p.ICP.ContactRoute, "untouched fields keep defaults")

	ac, err := p.AttributionConfig()
	require.NoError(t, err)
	assert.Equal(t, attribution.TimeDecay, ac.Model)
	assert.Equal(t, 48.0, ac.HalfLifeHours)
	assert.Equal(t, "/calculadora", ac.CalculatorRoute)

	require.Len(t, p.Funnel, 2)
	assert.Equal(t, []models.EventType{models.EventContact, models.EventFormSubmission}, p.Funnel[1].EventTypes)

	rules, err := p.AlertRules()
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, alerts.SlackAction{Channel: "#vip"}, rules[0].Actions[0])

	assert.Equal(t, []string{"rival.com"}, p.Competitors)
	require.Len(t, p.Enrichment, 1)
	assert.Equal(t, 1200, p.Enrichment[0].EmployeeCount)
}

func TestLoadProfileErrors(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"bad model":     "attribution: {model: w_shaped}",
		"bad rule":      "rules: [{id: x, conditions: [{field: leadScore, operator: contains, value: 3}]}]",
		"bad event":     "funnel: [{name: A, event_types: [scroll]}]",
		"unnamed stage": "funnel: [{pages: [/x]}]",
		"not yaml":      "icp: [unclosed",
	}
	for name, body := range cases {
		path := filepath.Join(dir, name+".yaml")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		_, err := LoadProfile(path)
		assert.Error(t, err, name)
	}
	_, err := LoadProfile(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestProfileBuiltInCodeReportsErrors(t *testing.T) {
	p := DefaultProfile()
	p.Attribution.Model = "w_shaped"
	_, err := p.AttributionConfig()
	assert.Error(t, err)

	p = DefaultProfile()
	p.Attribution.HalfLifeHours = -1
	_, err = p.AttributionConfig()
	assert.Error(t, err)

	p = DefaultProfile()
	p.Rules = []alerts.RuleSpec{{ID: "x"}}
	rules, err := p.AlertRules()
	assert.Error(t, err)
	assert.Empty(t, rules)
}
