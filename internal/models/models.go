package models

import (
	"strings"
	"time"
)

type EventType string

const (
	EventPageView       EventType = "page_view"
	EventFormSubmission EventType = "form_submission"
	EventCalculatorUse  EventType = "calculator_use"
	EventDownload       EventType = "download"
	EventContact        EventType = "contact"
)

func (e EventType) Valid() bool {
	switch e {
	case EventPageView, EventFormSubmission, EventCalculatorUse, EventDownload, EventContact:
		return true
	}
	return false
}

type TouchPoint struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Channel   string    `json:"channel"`
	Source    string    `json:"source"`
	Medium    string    `json:"medium"`
	Campaign  string    `json:"campaign,omitempty"`
	Content   string    `json:"content,omitempty"`
	PagePath  string    `json:"page_path"`
	Domain    string    `json:"domain"`
	SessionID string    `json:"session_id"`
	EventType EventType `json:"event_type"`
	Value     *float64  `json:"value,omitempty"`
	// opcionales, alimentan visitData
	Device          string `json:"device,omitempty"`
	Referrer        string `json:"referrer,omitempty"`
	DurationSeconds int    `json:"duration_seconds,omitempty"`
}

type ConversionPath struct {
	Domain                string             `json:"domain"`
	TouchPoints           []TouchPoint       `json:"touchpoints"`
	Conversion            TouchPoint         `json:"conversion"`
	TotalValue            float64            `json:"total_value"`
	PathLength            int                `json:"path_length"`
	TimeToConversionHours float64            `json:"time_to_conversion_hours"`
	Channels              []string           `json:"channels"`
	Model                 string             `json:"model"`
	Attribution           map[string]float64 `json:"attribution"`
}

// CompanyData es el perfil de comportamiento por dominio.
type CompanyData struct {
	Name              string    `json:"name"`
	Domain            string    `json:"domain"`
	Industry          string    `json:"industry,omitempty"`
	Size              string    `json:"size,omitempty"`
	Location          string    `json:"location,omitempty"`
	VisitCount        int       `json:"visit_count"`
	FirstVisit        time.Time `json:"first_visit"`
	LastVisit         time.Time `json:"last_visit"`
	PagesViewed       []string  `json:"pages_viewed"`
	EngagementScore   float64   `json:"engagement_score"`
	Devices           []string  `json:"devices,omitempty"`
	Referrers         []string  `json:"referrers,omitempty"`
	TimeOnSiteSeconds int       `json:"time_on_site_seconds"`
}

type EnrichmentData struct {
	Domain         string            `json:"domain" yaml:"domain"`
	Name           string            `json:"name,omitempty" yaml:"name"`
	Industry       string            `json:"industry,omitempty" yaml:"industry"`
	Size           string            `json:"size,omitempty" yaml:"size"`
	Location       string            `json:"location,omitempty" yaml:"location"`
	RevenueBand    string            `json:"revenue_band,omitempty" yaml:"revenue_band"`
	EmployeeCount  int               `json:"employee_count,omitempty" yaml:"employee_count"`
	Technologies   []string          `json:"technologies,omitempty" yaml:"technologies"`
	SocialProfiles map[string]string `json:"social_profiles,omitempty" yaml:"social_profiles"`
	Funding        string            `json:"funding,omitempty" yaml:"funding"`
}

type VisitData struct {
	FirstVisit        time.Time `json:"first_visit"`
	LastVisit         time.Time `json:"last_visit"`
	TotalVisits       int       `json:"total_visits"`
	PagesViewed       []string  `json:"pages_viewed"`
	TimeOnSiteSeconds int       `json:"time_on_site_seconds"`
	DeviceTypes       []string  `json:"device_types"`
	ReferralSources   []string  `json:"referral_sources"`
}

type LeadIntelligence struct {
	Company         CompanyData     `json:"company"`
	Enrichment      *EnrichmentData `json:"enrichment,omitempty"`
	Visit           VisitData       `json:"visit"`
	EngagementScore int             `json:"engagement_score"`
	IntentScore     int             `json:"intent_score"`
	FitScore        int             `json:"fit_score"`
	OverallScore    int             `json:"overall_score"`
	Triggers        []string        `json:"triggers"`
	NextActions     []string        `json:"next_actions"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type AlertType string

const (
	AlertHotLead          AlertType = "hot_lead"
	AlertReturningVisitor AlertType = "returning_visitor"
	AlertHighIntent       AlertType = "high_intent"
	AlertCompetitorVisit  AlertType = "competitor_visit"
	AlertEnterpriseLead   AlertType = "enterprise_lead"
)

type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// PriorityFor deriva la prioridad del score global.
func PriorityFor(overall int) Priority {
	switch {
	case overall >= 80:
		return PriorityCritical
	case overall >= 60:
		return PriorityHigh
	case overall >= 40:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

type Alert struct {
	ID               string    `json:"id"`
	Type             AlertType `json:"type"`
	Priority         Priority  `json:"priority"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	CompanyName      string    `json:"company_name"`
	Domain           string    `json:"domain"`
	RuleID           string    `json:"rule_id"`
	LeadScore        int       `json:"lead_score"`
	Triggers         []string  `json:"triggers"`
	Actions          []string  `json:"recommended_actions"`
	CreatedAt        time.Time `json:"created_at"`
	Read             bool      `json:"read"`
	NotificationSent bool      `json:"notification_sent"`
}

type DateRange struct {
	From time.Time
	To   time.Time
}

// Contains trata los extremos en cero como abiertos.
func (r *DateRange) Contains(t time.Time) bool {
	if r == nil {
		return true
	}
	if !r.From.IsZero() && t.Before(r.From) {
		return false
	}
	if !r.To.IsZero() && t.After(r.To) {
		return false
	}
	return true
}

// NormalizeDomain: minúsculas, sin espacios ni "www.".
func NormalizeDomain(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.TrimPrefix(s, "www.")
}
