package relay

import (
	"testing"
	"time"
)

func TestRegistry_AddAndRemove(t *testing.T) {
	r := NewRegistry()
	if !r.Add(SessionInfo{ID: "a", Voice: "Puck", StartedAt: time.Now()}) {
		t.Fatal("Add: got false, want true")
	}
	if got := r.Len(); got != 1 {
		t.Fatalf("Len: got %d, want 1", got)
	}

	r.Remove("a")
	if got := r.Len(); got != 0 {
		t.Fatalf("Len after Remove: got %d, want 0", got)
	}
}

func TestRegistry_RejectsDuplicateID(t *testing.T) {
	r := NewRegistry()
	r.Add(SessionInfo{ID: "a"})
	if r.Add(SessionInfo{ID: "a"}) {
		t.Fatal("duplicate Add: got true, want false")
	}
}

func TestRegistry_RemoveUnknownIsNoop(t *testing.T) {
	r := NewRegistry()
	r.Remove("missing")
	if got := r.Len(); got != 0 {
		t.Fatalf("Len: got %d, want 0", got)
	}
}

func TestRegistry_ListSnapshots(t *testing.T) {
	r := NewRegistry()
	r.Add(SessionInfo{ID: "a", Voice: "Puck"})
	r.Add(SessionInfo{ID: "b", Voice: "Aoede"})

	got := r.List()
	if len(got) != 2 {
		t.Fatalf("List: got %d entries, want 2", len(got))
	}
	seen := map[string]string{}
	for _, info := range got {
		seen[info.ID] = info.Voice
	}
	if seen["a"] != "Puck" || seen["b"] != "Aoede" {
		t.Errorf("List contents: got %v", seen)
	}
}
