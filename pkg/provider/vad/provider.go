// Package vad defines the Scorer interface for speech/silence classifiers.
//
// A Scorer wraps a frame-level speech detection model (e.g., Silero VAD or a
// custom network) behind a single-method capability: given one fixed-size
// window of normalised mono samples at the model's native rate, return the
// probability that the window contains speech. Framing, resampling, padding,
// and thresholding all live in the speech gate — the scorer sees exactly one
// correctly shaped window per call and keeps no cross-call state.
//
// Scoring is synchronous by design: Score returns immediately with a
// probability, making it suitable for the low-latency gate stage that sits in
// front of the AI-service egress path.
//
// Implementations must be safe for concurrent use; the gate may be consulted
// from multiple sessions at once.
package vad

// Scorer produces a speech probability for a single audio window.
//
// Implementations are black boxes to the gate: model loading, architecture,
// and runtime are the scorer's concern. Alternate models can be substituted
// without touching gate logic.
type Scorer interface {
	// Score analyses one window of normalised float32 mono samples in [-1, 1]
	// at the scorer's native sample rate and returns a speech probability in
	// [0, 1]. The window length must match the value the scorer was built
	// for; implementations should return an error for malformed windows
	// rather than guessing.
	//
	// A non-nil error means the classifier is unavailable or failed; callers
	// decide the failure policy (the speech gate fails open).
	Score(window []float32) (float64, error)
}

// ScorerFunc adapts an ordinary function to the [Scorer] interface.
type ScorerFunc func(window []float32) (float64, error)

// Score calls f.
func (f ScorerFunc) Score(window []float32) (float64, error) { return f(window) }
