package artcache

import (
	"sync"
	"time"
)

// RequestTTL bounds how long an unanswered request blocks a new one.
const RequestTTL = 30 * time.Second

type transfer struct {
	since  time.Time
	active bool
}

// Transfers is the set of art transfers in progress, keyed by normalized URL.
// It is shared between the loop and transfer goroutines.
type Transfers struct {
	mu      sync.Mutex
	entries map[string]*transfer
	now     func() time.Time
}

func NewTransfers(now func() time.Time) *Transfers {
	if now == nil {
		now = time.Now
	}
	return &Transfers{entries: map[string]*transfer{}, now: now}
}

// Request reports whether a request for the URL should be sent. It returns
// false while a transfer for the same URL is running or was requested less
// than RequestTTL ago.
func (t *Transfers) Request(rawUrl string) bool {
	key := Normalize(rawUrl)
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.entries[key]; ok {
		if entry.active || t.now().Sub(entry.since) < RequestTTL {
			return false
		}
	}
	t.entries[key] = &transfer{since: t.now()}
	return true
}

// Begin claims the URL for a data transfer. Only one claim succeeds until
// Finish is called.
func (t *Transfers) Begin(rawUrl string) bool {
	key := Normalize(rawUrl)
	t.mu.Lock()
	defer t.mu.Unlock()
	if entry, ok := t.entries[key]; ok && entry.active {
		return false
	}
	t.entries[key] = &transfer{since: t.now(), active: true}
	return true
}

// Finish removes the URL on completion or failure.
func (t *Transfers) Finish(rawUrl string) {
	key := Normalize(rawUrl)
	t.mu.Lock()
	delete(t.entries, key)
	t.mu.Unlock()
}

func (t *Transfers) InFlight(rawUrl string) bool {
	key := Normalize(rawUrl)
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.entries[key]
	return ok
}

func (t *Transfers) Reset() {
	t.mu.Lock()
	t.entries = map[string]*transfer{}
	t.mu.Unlock()
}
