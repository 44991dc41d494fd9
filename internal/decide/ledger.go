package decide

import (
	"sync"
	"time"

	"github.com/copperline/triage/internal/model"
)

// Ledger suppresses re-dispatch of the same action for the same case within
// a time window. Safe for concurrent use.
type Ledger struct {
	mu     sync.Mutex
	window time.Duration
	seen   map[string]time.Time // caseID.type -> last successful dispatch
	now    func() time.Time
}

// NewLedger creates a ledger with the given suppression window. A window of
// zero or less disables suppression entirely.
func NewLedger(window time.Duration) *Ledger {
	return &Ledger{
		window: window,
		seen:   map[string]time.Time{},
		now:    time.Now,
	}
}

func (l *Ledger) key(caseID string, t model.RecommendationType) string {
	return caseID + "." + string(t)
}

// Suppressed reports whether this case/action pair was dispatched within the
// window.
func (l *Ledger) Suppressed(caseID string, t model.RecommendationType) bool {
	if l == nil || l.window <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	last, ok := l.seen[l.key(caseID, t)]
	return ok && l.now().Sub(last) <= l.window
}

// Record marks a successful dispatch. Expired entries are pruned in passing
// so the map stays bounded by the active window.
func (l *Ledger) Record(caseID string, t model.RecommendationType) {
	if l == nil || l.window <= 0 {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	for k, ts := range l.seen {
		if now.Sub(ts) > l.window {
			delete(l.seen, k)
		}
	}
	l.seen[l.key(caseID, t)] = now
}
