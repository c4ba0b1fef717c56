// Package gate implements the speech/silence gate applied to outbound client
// audio before it reaches the AI service.
//
// The gate wraps a [vad.Scorer] and handles everything the classifier does
// not: sample normalisation, resampling to the classifier's native rate,
// shaping the frame into the exact window length the model requires, and
// turning the raw probability into a verdict via an adaptive threshold.
//
// Each decision depends only on the frame passed to the current call — the
// gate keeps no cross-frame state and is safe for concurrent use from
// multiple sessions.
package gate

import (
	"github.com/awaaz-ai/awaaz/pkg/audio"
	"github.com/awaaz-ai/awaaz/pkg/provider/vad"
)

// Defaults for the gate's tuning parameters. These are empirical policy
// values, not correctness constraints; override them via [Config].
const (
	// DefaultClassifierRate is the sample rate the classifier expects, in Hz.
	DefaultClassifierRate = 16000

	// DefaultWindowSize is the exact number of samples the classifier scores
	// per call (512 samples ≈ 32 ms at 16 kHz).
	DefaultWindowSize = 512

	// DefaultEnergyCutoff is the RMS level separating the two threshold
	// regimes.
	DefaultEnergyCutoff = 0.005

	// DefaultLowThreshold applies above the energy cutoff: at normal signal
	// levels the gate leans toward "speech" so quiet genuine speech is not
	// discarded.
	DefaultLowThreshold = 0.2

	// DefaultHighThreshold applies at near-silence levels to avoid false
	// positives from the noise floor.
	DefaultHighThreshold = 0.3
)

// Config holds the gate's tuning parameters. Zero-value fields fall back to
// the package defaults.
type Config struct {
	// ClassifierRate is the sample rate the scorer's windows must be at, in Hz.
	ClassifierRate int

	// WindowSize is the exact window length in samples the scorer requires.
	WindowSize int

	// EnergyCutoff is the RMS level above which LowThreshold applies.
	EnergyCutoff float64

	// LowThreshold is the speech probability threshold at normal signal levels.
	LowThreshold float64

	// HighThreshold is the speech probability threshold near the noise floor.
	HighThreshold float64
}

// withDefaults returns cfg with zero-value fields replaced by the defaults.
func (c Config) withDefaults() Config {
	if c.ClassifierRate <= 0 {
		c.ClassifierRate = DefaultClassifierRate
	}
	if c.WindowSize <= 0 {
		c.WindowSize = DefaultWindowSize
	}
	if c.EnergyCutoff <= 0 {
		c.EnergyCutoff = DefaultEnergyCutoff
	}
	if c.LowThreshold <= 0 {
		c.LowThreshold = DefaultLowThreshold
	}
	if c.HighThreshold <= 0 {
		c.HighThreshold = DefaultHighThreshold
	}
	return c
}

// Decision is the gate's verdict for one frame.
type Decision struct {
	// Speech is true when the frame should be forwarded as real audio.
	Speech bool

	// Probability is the classifier's speech probability for the scored
	// window. Zero when the classifier failed.
	Probability float64

	// RMS is the energy of the scored window, used to select the threshold.
	RMS float64

	// Threshold is the probability threshold that was applied.
	Threshold float64
}

// Gate decides, per audio frame, whether it contains speech.
type Gate struct {
	scorer vad.Scorer
	cfg    Config
}

// New creates a Gate around the given scorer. Zero-value Config fields take
// the package defaults.
func New(scorer vad.Scorer, cfg Config) *Gate {
	return &Gate{scorer: scorer, cfg: cfg.withDefaults()}
}

// Decide classifies one frame as speech or non-speech.
//
// The frame's int16 PCM is normalised to [-1, 1], resampled to the
// classifier rate when needed, and shaped to exactly WindowSize samples:
// shorter frames are right-padded with zeros, longer frames are trimmed to
// the centred sub-window. The scorer is invoked once on the shaped window
// and the verdict is probability > threshold, where the threshold depends on
// the window's RMS energy.
//
// Failure policy: when the classifier is unavailable or the frame cannot be
// brought to the classifier rate, Decide fails open and reports speech. The
// relay must never silently drop real user speech; a broken gate behaves as
// if no gating were in effect.
func (g *Gate) Decide(frame audio.Frame) Decision {
	samples := audio.Int16ToFloat32(frame.Data)

	if frame.SampleRate != g.cfg.ClassifierRate {
		resampled, err := audio.Resample(samples, frame.SampleRate, g.cfg.ClassifierRate)
		if err != nil {
			return Decision{Speech: true}
		}
		samples = resampled
	}

	window := g.shapeWindow(samples)
	rms := audio.RMS(window)

	threshold := g.cfg.HighThreshold
	if rms > g.cfg.EnergyCutoff {
		threshold = g.cfg.LowThreshold
	}

	p, err := g.scorer.Score(window)
	if err != nil {
		return Decision{Speech: true, RMS: rms, Threshold: threshold}
	}

	return Decision{
		Speech:      p > threshold,
		Probability: p,
		RMS:         rms,
		Threshold:   threshold,
	}
}

// shapeWindow returns a window of exactly cfg.WindowSize samples: input
// shorter than the window is left-aligned and zero-padded on the right;
// longer input is trimmed to the centred sub-window.
func (g *Gate) shapeWindow(samples []float32) []float32 {
	size := g.cfg.WindowSize
	switch {
	case len(samples) == size:
		return samples
	case len(samples) < size:
		window := make([]float32, size)
		copy(window, samples)
		return window
	default:
		start := (len(samples) - size) / 2
		return samples[start : start+size]
	}
}
