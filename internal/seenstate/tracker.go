// Package seenstate tracks which message UIDs have already produced a
// notification. Each tracker is owned by exactly one account watcher and is
// only touched from that watcher's goroutine; state lives in memory for the
// process lifetime, so a restart re-primes from scratch.
package seenstate

// Tracker is the per-account set of already-notified message UIDs.
type Tracker struct {
	seen map[uint32]struct{}
}

func NewTracker() *Tracker {
	return &Tracker{
		seen: make(map[uint32]struct{}),
	}
}

// Prime records the given UIDs as already known without notifying for them.
// Called with the unseen snapshot after every successful mailbox select. It
// merges into the existing set rather than replacing it, so a UID notified
// before a reconnect stays suppressed when it reappears in a fresh snapshot.
func (t *Tracker) Prime(uids []uint32) {
	for _, uid := range uids {
		t.seen[uid] = struct{}{}
	}
}

// IsNew reports whether the UID has not been notified yet.
func (t *Tracker) IsNew(uid uint32) bool {
	_, ok := t.seen[uid]
	return !ok
}

// MarkNotified records that a notification was dispatched for the UID. Idempotent.
func (t *Tracker) MarkNotified(uid uint32) {
	t.seen[uid] = struct{}{}
}

// Len returns the number of tracked UIDs.
func (t *Tracker) Len() int {
	return len(t.seen)
}
