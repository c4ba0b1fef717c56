package relay

import "testing"

func TestTurnState_BeginTurnTransitionsOnce(t *testing.T) {
	ts := NewTurnState(false)
	if !ts.BeginTurn() {
		t.Fatal("first BeginTurn: got false, want true")
	}
	if ts.BeginTurn() {
		t.Fatal("second BeginTurn: got true, want false")
	}
	if !ts.Speaking() {
		t.Fatal("Speaking: got false, want true")
	}
}

func TestTurnState_EndTurnReturnsToIdle(t *testing.T) {
	ts := NewTurnState(false)
	ts.BeginTurn()
	ts.EndTurn()
	if ts.Speaking() {
		t.Fatal("Speaking after EndTurn: got true, want false")
	}
	if !ts.BeginTurn() {
		t.Fatal("BeginTurn after EndTurn: got false, want true")
	}
}

func TestTurnState_EndTurnWhileIdleIsNoop(t *testing.T) {
	ts := NewTurnState(false)
	ts.EndTurn()
	if ts.Speaking() {
		t.Fatal("Speaking: got true, want false")
	}
}

func TestTurnState_ShouldProcess(t *testing.T) {
	tests := []struct {
		name               string
		allowInterruptions bool
		speaking           bool
		want               bool
	}{
		{"idle without interruptions", false, false, true},
		{"speaking without interruptions", false, true, false},
		{"idle with interruptions", true, false, true},
		{"speaking with interruptions", true, true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := NewTurnState(tt.allowInterruptions)
			if tt.speaking {
				ts.BeginTurn()
			}
			if got := ts.ShouldProcess(); got != tt.want {
				t.Errorf("ShouldProcess: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTurnState_ResetForcesIdle(t *testing.T) {
	ts := NewTurnState(false)
	ts.BeginTurn()
	ts.Reset()
	if ts.Speaking() {
		t.Fatal("Speaking after Reset: got true, want false")
	}
}
