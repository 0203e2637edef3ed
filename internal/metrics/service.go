// Package metrics agrega touchpoints y rutas de conversión en reportes de
// atribución, embudo y customer journey. Sólo lectura.
package metrics

import (
	"sort"
	"strings"

	"github.com/AngelCh415/leadintel/internal/attribution"
	"github.com/AngelCh415/leadintel/internal/models"
)

const topPaths = 10

// Source es la vista de lectura del store que necesitan los reportes.
type Source interface {
	AllTouchPoints() []models.TouchPoint
	Paths() []models.ConversionPath
}

// Stage es una etapa del embudo: alcanza quien tiene un touchpoint con alguno
// de los EventTypes (vacío = cualquiera) y, si hay Pages, cuya ruta contiene
// alguna de ellas.
type Stage struct {
	Name       string             `yaml:"name" json:"name"`
	EventTypes []models.EventType `yaml:"event_types" json:"event_types"`
	Pages      []string           `yaml:"pages" json:"pages"`
}

func DefaultStages() []Stage {
	return []Stage{
		{Name: "Visit"},
		{Name: "Explore services", Pages: []string{"/servicios", "/casos-de-exito", "/precios"}},
		{Name: "Valuation calculator", EventTypes: []models.EventType{models.EventCalculatorUse}},
		{Name: "Contact", EventTypes: []models.EventType{models.EventFormSubmission, models.EventContact}},
	}
}

type Service struct {
	src    Source
	b      *attribution.Builder
	stages []Stage
}

func NewService(src Source, b *attribution.Builder, stages []Stage) *Service {
	if len(stages) == 0 {
		stages = DefaultStages()
	}
	return &Service{src: src, b: b, stages: stages}
}

func (s *Service) Stages() []Stage { return s.stages }

func norm(str string) string { return strings.ToLower(strings.TrimSpace(str)) }

type ChannelPerformance struct {
	Channel            string  `json:"channel"`
	AttributedValue    float64 `json:"attributed_value"`
	Conversions        int     `json:"conversions"`
	TouchPoints        int     `json:"touchpoints"`
	ValuePerConversion float64 `json:"value_per_conversion"`
}

type PathPattern struct {
	Path     string   `json:"path"`
	Channels []string `json:"channels"`
	Count    int      `json:"count"`
}

type ChannelAssist struct {
	Channel      string  `json:"channel"`
	FirstTouch   int     `json:"first_touch"`
	LastTouch    int     `json:"last_touch"`
	Assists      int     `json:"assists"`
	TotalTouches int     `json:"total_touches"`
	AssistRate   float64 `json:"assist_rate"`
}

type AttributionReport struct {
	Model                    string               `json:"model"`
	TotalConversions         int                  `json:"total_conversions"`
	TotalValue               float64              `json:"total_value"`
	AvgPathLength            float64              `json:"avg_path_length"`
	AvgTimeToConversionHours float64              `json:"avg_time_to_conversion_hours"`
	Channels                 []ChannelPerformance `json:"channels"`
	TopPaths                 []PathPattern        `json:"top_paths"`
	Assists                  []ChannelAssist      `json:"assists"`
}

// AttributionReport recalcula cada ruta con el modelo pedido; r filtra por el
// momento de la conversión.
func (s *Service) AttributionReport(m attribution.Model, r *models.DateRange) AttributionReport {
	rep := AttributionReport{
		Model:    string(m),
		Channels: []ChannelPerformance{},
		TopPaths: []PathPattern{},
		Assists:  []ChannelAssist{},
	}
	perf := map[string]*ChannelPerformance{}
	assists := map[string]*ChannelAssist{}
	patterns := map[string]*PathPattern{}
	var totalLen int
	var totalHours float64

	for _, p := range s.src.Paths() {
		if !r.Contains(p.Conversion.Timestamp) {
			continue
		}
		rep.TotalConversions++
		rep.TotalValue += p.TotalValue
		totalLen += p.PathLength
		totalHours += p.TimeToConversionHours

		for ch, v := range s.b.Reattribute(p, m) {
			cp := perfFor(perf, ch)
			cp.AttributedValue += v
		}
		for _, ch := range p.Channels {
			perfFor(perf, ch).Conversions++
		}

		seq := make([]string, 0, len(p.TouchPoints))
		for i, tp := range p.TouchPoints {
			perfFor(perf, tp.Channel).TouchPoints++
			a := assistFor(assists, tp.Channel)
			a.TotalTouches++
			switch {
			case i == 0:
				a.FirstTouch++
			case i == len(p.TouchPoints)-1:
				a.LastTouch++
			default:
				a.Assists++
			}
			seq = append(seq, tp.Channel)
		}
		key := strings.Join(seq, " > ")
		pp, ok := patterns[key]
		if !ok {
			pp = &PathPattern{Path: key, Channels: seq}
			patterns[key] = pp
		}
		pp.Count++
	}

	if rep.TotalConversions > 0 {
		rep.AvgPathLength = round2(float64(totalLen) / float64(rep.TotalConversions))
		rep.AvgTimeToConversionHours = round2(totalHours / float64(rep.TotalConversions))
	}
	rep.TotalValue = round2(rep.TotalValue)

	for _, cp := range perf {
		if cp.Conversions > 0 {
			cp.ValuePerConversion = round2(cp.AttributedValue / float64(cp.Conversions))
		}
		cp.AttributedValue = round2(cp.AttributedValue)
		rep.Channels = append(rep.Channels, *cp)
	}
	// orden determinista
	sort.Slice(rep.Channels, func(i, j int) bool {
		if rep.Channels[i].AttributedValue != rep.Channels[j].AttributedValue {
			return rep.Channels[i].AttributedValue > rep.Channels[j].AttributedValue
		}
		return rep.Channels[i].Channel < rep.Channels[j].Channel
	})

	for _, a := range assists {
		if a.TotalTouches > 0 {
			a.AssistRate = round3(float64(a.Assists) / float64(a.TotalTouches))
		}
		rep.Assists = append(rep.Assists, *a)
	}
	sort.Slice(rep.Assists, func(i, j int) bool { return rep.Assists[i].Channel < rep.Assists[j].Channel })

	for _, pp := range patterns {
		rep.TopPaths = append(rep.TopPaths, *pp)
	}
	sort.Slice(rep.TopPaths, func(i, j int) bool {
		if rep.TopPaths[i].Count != rep.TopPaths[j].Count {
			return rep.TopPaths[i].Count > rep.TopPaths[j].Count
		}
		return rep.TopPaths[i].Path < rep.TopPaths[j].Path
	})
	rep.TopPaths = paginate(rep.TopPaths, topPaths, 0)
	return rep
}

func perfFor(m map[string]*ChannelPerformance, ch string) *ChannelPerformance {
	cp, ok := m[ch]
	if !ok {
		cp = &ChannelPerformance{Channel: ch}
		m[ch] = cp
	}
	return cp
}

func assistFor(m map[string]*ChannelAssist, ch string) *ChannelAssist {
	a, ok := m[ch]
	if !ok {
		a = &ChannelAssist{Channel: ch}
		m[ch] = a
	}
	return a
}

type FunnelStage struct {
	Name          string  `json:"name"`
	Organizations int     `json:"organizations"`
	StepRate      float64 `json:"step_rate"` // respecto de la etapa anterior
	DropOff       int     `json:"drop_off"`
}

type FunnelReport struct {
	Stages         []FunnelStage `json:"stages"`
	ConversionRate float64       `json:"conversion_rate"` // primera → última
}

// FunnelAnalysis cuenta organizaciones distintas que alcanzan cada etapa.
func (s *Service) FunnelAnalysis() FunnelReport {
	reached := make([]map[string]struct{}, len(s.stages))
	for i := range reached {
		reached[i] = map[string]struct{}{}
	}
	for _, tp := range s.src.AllTouchPoints() {
		for i, st := range s.stages {
			if st.matches(tp) {
				reached[i][norm(tp.Domain)] = struct{}{}
			}
		}
	}

	rep := FunnelReport{Stages: make([]FunnelStage, 0, len(s.stages))}
	for i, st := range s.stages {
		fs := FunnelStage{Name: st.Name, Organizations: len(reached[i])}
		if i == 0 {
			if fs.Organizations > 0 {
				fs.StepRate = 1
			}
		} else {
			prev := rep.Stages[i-1].Organizations
			if prev > 0 {
				fs.StepRate = round3(float64(fs.Organizations) / float64(prev))
			}
			if prev > fs.Organizations {
				fs.DropOff = prev - fs.Organizations
			}
		}
		rep.Stages = append(rep.Stages, fs)
	}
	if n := len(rep.Stages); n > 0 && rep.Stages[0].Organizations > 0 {
		rep.ConversionRate = round3(float64(rep.Stages[n-1].Organizations) / float64(rep.Stages[0].Organizations))
	}
	return rep
}

func (st Stage) matches(tp models.TouchPoint) bool {
	if len(st.EventTypes) > 0 {
		ok := false
		for _, et := range st.EventTypes {
			if tp.EventType == et {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if len(st.Pages) == 0 {
		return true
	}
	for _, p := range st.Pages {
		if p != "" && strings.Contains(tp.PagePath, p) {
			return true
		}
	}
	return false
}

const (
	JourneyAwareness     = "Awareness"
	JourneyInterest      = "Interest"
	JourneyConsideration = "Consideration"
	JourneyIntent        = "Intent"
	JourneyConversion    = "Conversion"
)

var journeyOrder = []string{JourneyAwareness, JourneyInterest, JourneyConsideration, JourneyIntent, JourneyConversion}

type ChannelShare struct {
	Channel string  `json:"channel"`
	Count   int     `json:"count"`
	Share   float64 `json:"share"`
}

type JourneyStage struct {
	Stage       string         `json:"stage"`
	TouchPoints int            `json:"touchpoints"`
	Channels    []ChannelShare `json:"channels"`
}

// CustomerJourneyMap ubica cada touchpoint de cada ruta en una etapa según su
// posición relativa dentro de la ruta.
func (s *Service) CustomerJourneyMap() []JourneyStage {
	counts := map[string]map[string]int{}
	for _, st := range journeyOrder {
		counts[st] = map[string]int{}
	}
	for _, p := range s.src.Paths() {
		n := len(p.TouchPoints)
		for i, tp := range p.TouchPoints {
			counts[JourneyStageAt(i, n)][tp.Channel]++
		}
	}

	out := make([]JourneyStage, 0, len(journeyOrder))
	for _, st := range journeyOrder {
		js := JourneyStage{Stage: st, Channels: []ChannelShare{}}
		for _, c := range counts[st] {
			js.TouchPoints += c
		}
		for ch, c := range counts[st] {
			js.Channels = append(js.Channels, ChannelShare{Channel: ch, Count: c, Share: round3(float64(c) / float64(js.TouchPoints))})
		}
		sort.Slice(js.Channels, func(i, j int) bool {
			if js.Channels[i].Count != js.Channels[j].Count {
				return js.Channels[i].Count > js.Channels[j].Count
			}
			return js.Channels[i].Channel < js.Channels[j].Channel
		})
		out = append(out, js)
	}
	return out
}

// JourneyStageAt: primero Awareness, último Conversion; el resto por tercios.
func JourneyStageAt(i, n int) string {
	switch {
	case i == 0:
		return JourneyAwareness
	case i == n-1:
		return JourneyConversion
	}
	pos := float64(i) / float64(n-1)
	switch {
	case pos < 1.0/3:
		return JourneyInterest
	case pos < 2.0/3:
		return JourneyConsideration
	}
	return JourneyIntent
}

func paginate[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	end := offset + limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[offset:end]
}

func round2(f float64) float64 { return float64(int64(f*100+0.5)) / 100 }
func round3(f float64) float64 { return float64(int64(f*1000+0.5)) / 1000 }
