package enrich

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/AngelCh415/leadintel/internal/models"
	"github.com/AngelCh415/leadintel/internal/utils"
)

// StaticProvider responde desde una tabla fija (sección enrichment del perfil).
type StaticProvider struct {
	data map[string]models.EnrichmentData
}

func NewStaticProvider(entries []models.EnrichmentData) *StaticProvider {
	p := &StaticProvider{data: make(map[string]models.EnrichmentData, len(entries))}
	for _, e := range entries {
		p.data[normDomain(e.Domain)] = e
	}
	return p
}

func (p *StaticProvider) Lookup(ctx context.Context, domain string) (*models.EnrichmentData, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d, ok := p.data[normDomain(domain)]
	if !ok {
		return nil, ErrNotFound
	}
	return &d, nil
}

// HTTPProvider consulta una API JSON en baseURL?domain=<dominio>.
type HTTPProvider struct {
	c       utils.HTTPClient
	baseURL string
	apiKey  string
	limiter *rate.Limiter
	backoff utils.Backoff
}

type providerResp struct {
	Name           string            `json:"name"`
	Domain         string            `json:"domain"`
	Industry       string            `json:"industry"`
	Size           string            `json:"size"`
	Location       string            `json:"location"`
	RevenueBand    string            `json:"revenue_band"`
	EmployeeCount  int               `json:"employee_count"`
	Technologies   []string          `json:"technologies"`
	SocialProfiles map[string]string `json:"social_profiles"`
	Funding        string            `json:"funding"`
}

// NewHTTPProvider limita las llamadas salientes a rps por segundo.
func NewHTTPProvider(c utils.HTTPClient, baseURL, apiKey string, rps float64) *HTTPProvider {
	if rps <= 0 {
		rps = 5
	}
	return &HTTPProvider{
		c:       c,
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		backoff: utils.NewBackoff(100*time.Millisecond, 2).WithJitter(150 * time.Millisecond),
	}
}

func (p *HTTPProvider) Lookup(ctx context.Context, domain string) (*models.EnrichmentData, error) {
	q := url.Values{"domain": {domain}}
	if p.apiKey != "" {
		q.Set("api_key", p.apiKey)
	}
	target := p.baseURL + "?" + q.Encode()

	var r providerResp
	var permanent error
	err := p.backoff.Do(ctx, func(int) error {
		if err := p.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter error: %w", err)
		}
		err := utils.GetJSON(ctx, p.c, target, &r)
		if err != nil && !utils.Retryable(err) {
			permanent = err
			return nil
		}
		return err
	})
	if err == nil {
		err = permanent
	}
	if err != nil {
		var se *utils.StatusError
		if errors.As(err, &se) && se.Code == http.StatusNotFound {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("enrichment lookup %s: %w", domain, err)
	}
	return &models.EnrichmentData{
		Domain:         coalesce(r.Domain, domain),
		Name:           r.Name,
		Industry:       r.Industry,
		Size:           r.Size,
		Location:       r.Location,
		RevenueBand:    r.RevenueBand,
		EmployeeCount:  r.EmployeeCount,
		Technologies:   r.Technologies,
		SocialProfiles: r.SocialProfiles,
		Funding:        r.Funding,
	}, nil
}

func coalesce(s, def string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return def
	}
	return s
}

var (
	_ Provider = (*StaticProvider)(nil)
	_ Provider = (*HTTPProvider)(nil)
)
