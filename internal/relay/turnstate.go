package relay

import "sync/atomic"

// TurnState tracks whether the assistant is currently producing audio and
// whether the client may interrupt it.
//
// The speaking flag is the only state shared between the two session pumps:
// the service pump flips it on turn boundaries while the client pump reads it
// for the admission check. allowInterruptions is fixed for the session at
// construction time.
type TurnState struct {
	speaking           atomic.Bool
	allowInterruptions bool
}

// NewTurnState creates a TurnState in the Idle state.
func NewTurnState(allowInterruptions bool) *TurnState {
	return &TurnState{allowInterruptions: allowInterruptions}
}

// BeginTurn transitions Idle → Speaking. Returns true when this call
// performed the transition, false when the assistant was already speaking.
// Called by the service pump on the first audio payload of a turn.
func (t *TurnState) BeginTurn() bool {
	return t.speaking.CompareAndSwap(false, true)
}

// EndTurn transitions Speaking → Idle. Called by the service pump on the
// turn-complete signal. A no-op when already idle.
func (t *TurnState) EndTurn() {
	t.speaking.Store(false)
}

// Speaking reports whether the assistant is currently producing audio.
func (t *TurnState) Speaking() bool {
	return t.speaking.Load()
}

// AllowInterruptions reports the session's fixed interruption policy.
func (t *TurnState) AllowInterruptions() bool {
	return t.allowInterruptions
}

// ShouldProcess reports whether a client audio frame should be admitted:
// true unless the assistant is speaking and interruptions are disallowed.
func (t *TurnState) ShouldProcess() bool {
	return !t.speaking.Load() || t.allowInterruptions
}

// Reset forces the state back to Idle. Used during session teardown so the
// flag is never left set after the upstream connection drops; this is a
// forced reset, not a normal transition.
func (t *TurnState) Reset() {
	t.speaking.Store(false)
}
