package vad

import "math"

// Compile-time assertion that EnergyScorer satisfies the Scorer interface.
var _ Scorer = (*EnergyScorer)(nil)

// Default energy calibration: RMS levels mapped to the probability midpoint
// and slope of the logistic curve. Tuned against typical browser microphone
// capture; quiet rooms sit near 0.001–0.003 RMS, conversational speech above
// 0.02.
const (
	defaultMidpointRMS = 0.012
	defaultSteepness   = 400.0
)

// EnergyScorer is a model-free reference [Scorer] that maps the RMS energy of
// a window onto a speech probability through a logistic curve. It exists so
// the relay can run gated without a neural classifier; deployments that need
// real speech/noise discrimination should plug in a model-backed scorer.
//
// The scorer is stateless: the probability depends only on the window passed
// to the current call. Safe for concurrent use.
type EnergyScorer struct {
	midpoint  float64
	steepness float64
}

// EnergyOption configures an [EnergyScorer].
type EnergyOption func(*EnergyScorer)

// WithMidpoint sets the RMS level that maps to probability 0.5.
func WithMidpoint(rms float64) EnergyOption {
	return func(s *EnergyScorer) { s.midpoint = rms }
}

// WithSteepness sets the slope of the logistic curve around the midpoint.
// Higher values make the speech/silence transition sharper.
func WithSteepness(k float64) EnergyOption {
	return func(s *EnergyScorer) { s.steepness = k }
}

// NewEnergyScorer creates an EnergyScorer with the given options applied.
func NewEnergyScorer(opts ...EnergyOption) *EnergyScorer {
	s := &EnergyScorer{
		midpoint:  defaultMidpointRMS,
		steepness: defaultSteepness,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Score returns a logistic function of the window's RMS energy. An empty
// window scores 0 (definite silence). Never returns an error.
func (s *EnergyScorer) Score(window []float32) (float64, error) {
	if len(window) == 0 {
		return 0, nil
	}
	var sum float64
	for _, v := range window {
		sum += float64(v) * float64(v)
	}
	rms := math.Sqrt(sum / float64(len(window)))
	return 1.0 / (1.0 + math.Exp(-s.steepness*(rms-s.midpoint))), nil
}
