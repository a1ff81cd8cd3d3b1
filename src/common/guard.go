package common

import (
	"fmt"
	"log"
	"sync"
	"time"
)

const (
	dedupWindow = 60 * time.Second
	lockMaxAge  = 30 * time.Second

	// SweepInterval is how often stale guard entries get dropped.
	SweepInterval = 10 * time.Minute
)

type lockEntry struct {
	since    time.Time
	released chan struct{}
}

// NotificationGuard serializes notification processing per external
// transaction id and drops redeliveries of the same (requestId, status)
// pair inside the dedup window. All state is process local: a single
// active instance is assumed to own notification handling.
type NotificationGuard struct {
	mu    sync.Mutex
	seen  map[string]time.Time
	locks map[string]*lockEntry

	waitTries    int
	waitInterval time.Duration
	now          func() time.Time
}

func NewNotificationGuard() *NotificationGuard {
	return &NotificationGuard{
		seen:         make(map[string]time.Time),
		locks:        make(map[string]*lockEntry),
		waitTries:    10,
		waitInterval: 500 * time.Millisecond,
		now:          time.Now,
	}
}

// SetWaitBudget overrides how long WaitForLock blocks on a held lock.
func (g *NotificationGuard) SetWaitBudget(tries int, interval time.Duration) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.waitTries = tries
	g.waitInterval = interval
}

func dedupKey(requestID, status string) string {
	return fmt.Sprintf("%s|%s", requestID, status)
}

// ShouldSkipDuplicate reports whether this exact (requestId, status)
// pair was already seen inside the dedup window. The pair is recorded
// on first sight.
func (g *NotificationGuard) ShouldSkipDuplicate(requestID, status string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := dedupKey(requestID, status)
	if at, ok := g.seen[key]; ok && g.now().Sub(at) < dedupWindow {
		return true
	}
	g.seen[key] = g.now()
	return false
}

// TryAcquireLock marks requestID as in progress. Returns false when
// another notification for the same transaction id is being processed.
func (g *NotificationGuard) TryAcquireLock(requestID string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, held := g.locks[requestID]; held {
		return false
	}
	g.locks[requestID] = &lockEntry{
		since:    g.now(),
		released: make(chan struct{}),
	}
	return true
}

// WaitForLock blocks until the in-progress flag for requestID clears or
// the wait budget runs out. Returns whether the lock was free at exit.
func (g *NotificationGuard) WaitForLock(requestID string) bool {
	g.mu.Lock()
	tries, interval := g.waitTries, g.waitInterval
	g.mu.Unlock()
	for i := 0; i < tries; i++ {
		g.mu.Lock()
		entry, held := g.locks[requestID]
		g.mu.Unlock()
		if !held {
			return true
		}
		select {
		case <-entry.released:
		case <-time.After(interval):
		}
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	_, held := g.locks[requestID]
	return !held
}

// ReleaseLock clears the in-progress flag and wakes any waiters. Must
// run on every exit path of the notification handler, otherwise the
// transaction id stays locked until the sweep catches it.
func (g *NotificationGuard) ReleaseLock(requestID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if entry, ok := g.locks[requestID]; ok {
		close(entry.released)
		delete(g.locks, requestID)
	}
}

// Sweep drops dedup entries older than the dedup window and locks held
// longer than lockMaxAge. A crashed handler would otherwise leak its
// lock forever.
func (g *NotificationGuard) Sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()
	now := g.now()
	for key, at := range g.seen {
		if now.Sub(at) >= dedupWindow {
			delete(g.seen, key)
		}
	}
	for id, entry := range g.locks {
		if now.Sub(entry.since) >= lockMaxAge {
			log.Printf("[guard] Dropping stale lock for request [%s]\n", id)
			close(entry.released)
			delete(g.locks, id)
		}
	}
}
