package seenstate

import "testing"

func TestPrimeSuppressesInitialSnapshot(t *testing.T) {
	tracker := NewTracker()
	tracker.Prime([]uint32{101, 102})

	if tracker.IsNew(101) || tracker.IsNew(102) {
		t.Error("Expected primed UIDs to not be new")
	}
	if !tracker.IsNew(103) {
		t.Error("Expected UID 103 to be new after priming {101, 102}")
	}
}

func TestPrimeMergesAcrossReconnects(t *testing.T) {
	tracker := NewTracker()
	tracker.Prime([]uint32{101, 102})
	tracker.MarkNotified(103)

	// re-prime with a fresh snapshot that re-reports an already-notified UID
	tracker.Prime([]uint32{102, 103, 104})

	if tracker.IsNew(101) {
		t.Error("Expected UID 101 to stay known after re-prime")
	}
	if tracker.IsNew(103) {
		t.Error("Expected notified UID 103 to stay suppressed after re-prime")
	}
	if tracker.IsNew(104) {
		t.Error("Expected re-primed UID 104 to be suppressed")
	}
	if !tracker.IsNew(105) {
		t.Error("Expected UID 105 to be new")
	}
}

func TestMarkNotifiedIdempotent(t *testing.T) {
	tracker := NewTracker()
	tracker.MarkNotified(42)
	tracker.MarkNotified(42)

	if tracker.IsNew(42) {
		t.Error("Expected UID 42 to not be new after marking")
	}
	if tracker.Len() != 1 {
		t.Errorf("Expected 1 tracked UID, got %d", tracker.Len())
	}
}
