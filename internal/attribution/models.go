package attribution

import (
	"fmt"
	"math"

	"github.com/AngelCh415/leadintel/internal/models"
)

type Model string

const (
	FirstTouch    Model = "first_touch"
	LastTouch     Model = "last_touch"
	Linear        Model = "linear"
	TimeDecay     Model = "time_decay"
	PositionBased Model = "position_based"
)

var AllModels = []Model{FirstTouch, LastTouch, Linear, TimeDecay, PositionBased}

func ParseModel(s string) (Model, error) {
	for _, m := range AllModels {
		if string(m) == s {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown attribution model %q", s)
}

// reparto position_based
const (
	positionEdgeShare     = 0.4
	positionTwoPointFirst = 0.4
)

// Attribute reparte value entre los canales de tps (ordenados ascendente,
// el último es la conversión). halfLifeHours sólo aplica a time_decay.
func Attribute(tps []models.TouchPoint, value float64, m Model, halfLifeHours float64) map[string]float64 {
	out := map[string]float64{}
	n := len(tps)
	if n == 0 {
		return out
	}
	switch m {
	case FirstTouch:
		out[tps[0].Channel] = value
	case LastTouch:
		out[tps[n-1].Channel] = value
	case Linear:
		share := value / float64(n)
		for _, tp := range tps {
			out[tp.Channel] += share
		}
	case TimeDecay:
		timeDecay(out, tps, value, halfLifeHours)
	case PositionBased:
		positionBased(out, tps, value)
	}
	return out
}

// peso 2^(-Δh/halfLife), Δh horas entre el touchpoint y la conversión
func timeDecay(out map[string]float64, tps []models.TouchPoint, value, halfLife float64) {
	if halfLife <= 0 {
		halfLife = DefaultHalfLifeHours
	}
	conv := tps[len(tps)-1].Timestamp
	weights := make([]float64, len(tps))
	var total float64
	for i, tp := range tps {
		dh := conv.Sub(tp.Timestamp).Hours()
		weights[i] = math.Pow(2, -dh/halfLife)
		total += weights[i]
	}
	for i, tp := range tps {
		out[tp.Channel] += value * weights[i] / total
	}
}

func positionBased(out map[string]float64, tps []models.TouchPoint, value float64) {
	n := len(tps)
	switch n {
	case 1:
		out[tps[0].Channel] += value
		return
	case 2:
		out[tps[0].Channel] += value * positionTwoPointFirst
		out[tps[1].Channel] += value * (1 - positionTwoPointFirst)
		return
	}
	out[tps[0].Channel] += value * positionEdgeShare
	out[tps[n-1].Channel] += value * positionEdgeShare
	middle := value * (1 - 2*positionEdgeShare) / float64(n-2)
	for _, tp := range tps[1 : n-1] {
		out[tp.Channel] += middle
	}
}
