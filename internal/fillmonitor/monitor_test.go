package fillmonitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/wonny/dfs/backend/internal/contracts"
)

func testMonitor() *Monitor {
	return New(Config{
		FillRateThreshold: 0.70,
		TimeBeforeLock:    2 * time.Hour,
		StopEditWindow:    5 * time.Minute,
	})
}

func contestAt(filled, limit int, lockIn time.Duration, now time.Time) *contracts.Contest {
	return &contracts.Contest{
		ID:           "c1",
		TotalEntries: filled,
		EntryLimit:   limit,
		LockTime:     now.Add(lockIn),
	}
}

func TestCheckSubmitsOnFillRate(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := testMonitor()

	d := m.Check(contestAt(70, 100, 6*time.Hour, now), now)
	assert.True(t, d.Submit)

	d = m.Check(contestAt(69, 100, 6*time.Hour, now), now)
	assert.False(t, d.Submit)
}

func TestCheckSubmitsWhenLockIsClose(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := testMonitor()

	// Low fill, but under two hours to lock
	d := m.Check(contestAt(10, 100, 119*time.Minute, now), now)
	assert.True(t, d.Submit)

	d = m.Check(contestAt(10, 100, 121*time.Minute, now), now)
	assert.False(t, d.Submit)
}

func TestCheckNeverSubmitsInStopEditWindow(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := testMonitor()

	// Full contest, four minutes to lock: too late
	d := m.Check(contestAt(100, 100, 4*time.Minute, now), now)
	assert.False(t, d.Submit)
	assert.Contains(t, d.Reason, "too close to lock")
}

func TestCheckNeverSubmitsAfterLock(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := testMonitor()

	d := m.Check(contestAt(100, 100, -time.Minute, now), now)
	assert.False(t, d.Submit)
	assert.Contains(t, d.Reason, "locked")
}

func TestCanEdit(t *testing.T) {
	now := time.Date(2026, 1, 10, 9, 0, 0, 0, time.UTC)
	m := testMonitor()

	assert.True(t, m.CanEdit(contestAt(0, 100, time.Hour, now), now))
	assert.False(t, m.CanEdit(contestAt(0, 100, 4*time.Minute, now), now))
	assert.False(t, m.CanEdit(contestAt(0, 100, -time.Minute, now), now))
}
