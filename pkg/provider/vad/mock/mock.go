// Package mock provides a test double for the vad.Scorer interface.
//
// Use Scorer to inject fixed probabilities or errors and to inspect the
// windows that were submitted for scoring.
//
// Example:
//
//	sc := &mock.Scorer{Probability: 0.9}
//	g := gate.New(sc, gate.Config{})
package mock

import (
	"sync"

	"github.com/awaaz-ai/awaaz/pkg/provider/vad"
)

// Compile-time assertion that Scorer satisfies the vad.Scorer interface.
var _ vad.Scorer = (*Scorer)(nil)

// Scorer is a mock implementation of vad.Scorer.
type Scorer struct {
	mu sync.Mutex

	// Probability is returned from Score when Err is nil.
	Probability float64

	// Err, if non-nil, is returned as the error from Score.
	Err error

	// Windows records a copy of every window passed to Score, in order.
	Windows [][]float32
}

// Score records the call and returns Probability, Err.
func (s *Scorer) Score(window []float32) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make([]float32, len(window))
	copy(cp, window)
	s.Windows = append(s.Windows, cp)
	if s.Err != nil {
		return 0, s.Err
	}
	return s.Probability, nil
}

// Calls returns the number of Score invocations so far. Thread-safe.
func (s *Scorer) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Windows)
}

// LastWindow returns the most recently scored window, or nil if Score has not
// been called. Thread-safe.
func (s *Scorer) LastWindow() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Windows) == 0 {
		return nil
	}
	return s.Windows[len(s.Windows)-1]
}

// Reset clears all recorded windows. Thread-safe.
func (s *Scorer) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Windows = nil
}
