package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGuardDedup(t *testing.T) {
	g := NewNotificationGuard()
	current := time.Now()
	g.now = func() time.Time { return current }

	assert.False(t, g.ShouldSkipDuplicate("TX1", "APPROVED"))
	assert.True(t, g.ShouldSkipDuplicate("TX1", "APPROVED"))

	// a different status for the same transaction is not a duplicate
	assert.False(t, g.ShouldSkipDuplicate("TX1", "REJECTED"))
	assert.False(t, g.ShouldSkipDuplicate("TX2", "APPROVED"))

	current = current.Add(61 * time.Second)
	assert.False(t, g.ShouldSkipDuplicate("TX1", "APPROVED"))
}

func TestGuardLock(t *testing.T) {
	g := NewNotificationGuard()

	assert.True(t, g.TryAcquireLock("TX1"))
	assert.False(t, g.TryAcquireLock("TX1"))
	assert.True(t, g.TryAcquireLock("TX2"))

	g.ReleaseLock("TX1")
	assert.True(t, g.TryAcquireLock("TX1"))

	// releasing an unheld lock is a no-op
	g.ReleaseLock("TX3")
	assert.True(t, g.TryAcquireLock("TX3"))
}

func TestGuardWaitForLock(t *testing.T) {
	g := NewNotificationGuard()
	g.SetWaitBudget(3, 10*time.Millisecond)

	assert.True(t, g.WaitForLock("TX1"))

	assert.True(t, g.TryAcquireLock("TX1"))
	go func() {
		time.Sleep(5 * time.Millisecond)
		g.ReleaseLock("TX1")
	}()
	assert.True(t, g.WaitForLock("TX1"))

	assert.True(t, g.TryAcquireLock("TX2"))
	assert.False(t, g.WaitForLock("TX2"))
}

func TestGuardSweep(t *testing.T) {
	g := NewNotificationGuard()
	current := time.Now()
	g.now = func() time.Time { return current }

	g.ShouldSkipDuplicate("TX1", "APPROVED")
	assert.True(t, g.TryAcquireLock("TX1"))

	// nothing is stale yet
	g.Sweep()
	assert.True(t, g.ShouldSkipDuplicate("TX1", "APPROVED"))
	assert.False(t, g.TryAcquireLock("TX1"))

	current = current.Add(61 * time.Second)
	g.Sweep()
	assert.False(t, g.ShouldSkipDuplicate("TX1", "APPROVED"))
	assert.True(t, g.TryAcquireLock("TX1"))
}
