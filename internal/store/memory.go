package store

import (
	"sort"
	"sync"
	"time"

	"github.com/AngelCh415/leadintel/internal/models"
)

// puntos de engagement por tipo de evento
var engagementPoints = map[models.EventType]float64{
	models.EventPageView:       1,
	models.EventDownload:       5,
	models.EventCalculatorUse:  10,
	models.EventFormSubmission: 15,
	models.EventContact:        20,
}

type profile struct {
	data      models.CompanyData
	pages     map[string]struct{}
	devices   map[string]struct{}
	referrers map[string]struct{}
	sessions  map[string]struct{}
}

type MemoryStore struct {
	mu        sync.RWMutex
	tps       []models.TouchPoint
	companies map[string]*profile
	paths     []models.ConversionPath
	leads     map[string]models.LeadIntelligence
	seen      map[string]struct{} // idempotencia por id de touchpoint
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		companies: make(map[string]*profile),
		leads:     make(map[string]models.LeadIntelligence),
		seen:      make(map[string]struct{}),
	}
}

// Record agrega el touchpoint y actualiza el perfil del dominio. Devuelve false
// si el id ya se había visto.
func (s *MemoryStore) Record(tp models.TouchPoint) (bool, error) {
	if err := tp.Validate(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[tp.ID]; ok {
		return false, nil
	}
	s.seen[tp.ID] = struct{}{}
	s.tps = append(s.tps, tp)

	p, ok := s.companies[tp.Domain]
	if !ok {
		p = &profile{
			data:      models.CompanyData{Name: tp.Domain, Domain: tp.Domain, FirstVisit: tp.Timestamp},
			pages:     map[string]struct{}{},
			devices:   map[string]struct{}{},
			referrers: map[string]struct{}{},
			sessions:  map[string]struct{}{},
		}
		s.companies[tp.Domain] = p
	}
	if _, ok := p.sessions[tp.SessionID]; !ok {
		p.sessions[tp.SessionID] = struct{}{}
		p.data.VisitCount++
	}
	if tp.Timestamp.Before(p.data.FirstVisit) {
		p.data.FirstVisit = tp.Timestamp
	}
	if tp.Timestamp.After(p.data.LastVisit) {
		p.data.LastVisit = tp.Timestamp
	}
	p.pages[tp.PagePath] = struct{}{}
	if tp.Device != "" {
		p.devices[tp.Device] = struct{}{}
	}
	if tp.Referrer != "" {
		p.referrers[tp.Referrer] = struct{}{}
	}
	p.data.TimeOnSiteSeconds += max0(tp.DurationSeconds)
	p.data.EngagementScore += engagementPoints[tp.EventType]
	return true, nil
}

func (s *MemoryStore) Company(domain string) (models.CompanyData, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.companies[domain]
	if !ok {
		return models.CompanyData{}, false
	}
	return p.snapshot(), true
}

func (s *MemoryStore) Companies() []models.CompanyData {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CompanyData, 0, len(s.companies))
	for _, p := range s.companies {
		out = append(out, p.snapshot())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

// TouchPoints hace un scan completo filtrando por dominio y ventana; vacíos
// significan sin filtro.
func (s *MemoryStore) TouchPoints(domain string, from, to time.Time) []models.TouchPoint {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.TouchPoint
	for _, tp := range s.tps {
		if domain != "" && tp.Domain != domain {
			continue
		}
		if !from.IsZero() && tp.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && tp.Timestamp.After(to) {
			continue
		}
		out = append(out, tp)
	}
	return out
}

func (s *MemoryStore) AllTouchPoints() []models.TouchPoint {
	return s.TouchPoints("", time.Time{}, time.Time{})
}

func (s *MemoryStore) AddPath(p models.ConversionPath) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, p)
}

// Paths devuelve las rutas en orden de inserción.
func (s *MemoryStore) Paths() []models.ConversionPath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.ConversionPath, len(s.paths))
	copy(out, s.paths)
	return out
}

func (s *MemoryStore) PathsFor(domain string) []models.ConversionPath {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.ConversionPath
	for _, p := range s.paths {
		if p.Domain == domain {
			out = append(out, p)
		}
	}
	return out
}

func (s *MemoryStore) PutLead(li models.LeadIntelligence) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.leads[li.Company.Domain] = li
}

func (s *MemoryStore) Lead(domain string) (models.LeadIntelligence, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	li, ok := s.leads[domain]
	return li, ok
}

// Leads ordena por score global descendente, luego dominio.
func (s *MemoryStore) Leads() []models.LeadIntelligence {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.LeadIntelligence, 0, len(s.leads))
	for _, li := range s.leads {
		out = append(out, li)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OverallScore != out[j].OverallScore {
			return out[i].OverallScore > out[j].OverallScore
		}
		return out[i].Company.Domain < out[j].Company.Domain
	})
	return out
}

func (p *profile) snapshot() models.CompanyData {
	d := p.data
	d.PagesViewed = sortedKeys(p.pages)
	d.Devices = sortedKeys(p.devices)
	d.Referrers = sortedKeys(p.referrers)
	return d
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func max0(i int) int {
	if i < 0 {
		return 0
	}
	return i
}
