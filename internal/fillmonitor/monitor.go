package fillmonitor

import (
	"fmt"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
)

// Config holds submission timing thresholds
type Config struct {
	FillRateThreshold float64       // submit once this fraction of the cap is filled
	TimeBeforeLock    time.Duration // or once the lock is this close
	StopEditWindow    time.Duration // no submissions or edits inside this window
}

// Decision explains whether a contest's lineups should go in now
type Decision struct {
	ContestID  string        `json:"contest_id"`
	FillRate   float64       `json:"fill_rate"`
	TimeToLock time.Duration `json:"time_to_lock"`
	Submit     bool          `json:"submit"`
	Reason     string        `json:"reason"`
}

// Monitor decides submission timing from fill rates and lock proximity.
// Pure logic; fetching fresh contest data is the caller's job.
type Monitor struct {
	cfg Config
}

// New creates a fill monitor
func New(cfg Config) *Monitor {
	return &Monitor{cfg: cfg}
}

// Check evaluates one contest against the submission rules:
// submit when the fill rate reaches the threshold or the lock is close,
// never inside the stop-edit window, never after lock.
func (m *Monitor) Check(contest *contracts.Contest, now time.Time) Decision {
	d := Decision{
		ContestID:  contest.ID,
		FillRate:   contest.FillRate(),
		TimeToLock: contest.LockTime.Sub(now),
	}

	switch {
	case d.TimeToLock <= 0:
		d.Reason = "contest already locked"
	case d.TimeToLock <= m.cfg.StopEditWindow:
		d.Reason = fmt.Sprintf("too close to lock (%.0f min remaining)", d.TimeToLock.Minutes())
	case d.FillRate >= m.cfg.FillRateThreshold:
		d.Submit = true
		d.Reason = fmt.Sprintf("fill rate %.1f%% at threshold", d.FillRate*100)
	case d.TimeToLock <= m.cfg.TimeBeforeLock:
		d.Submit = true
		d.Reason = fmt.Sprintf("%.0f min to lock", d.TimeToLock.Minutes())
	default:
		d.Reason = fmt.Sprintf("waiting (fill %.1f%%, %.1fh to lock)", d.FillRate*100, d.TimeToLock.Hours())
	}
	return d
}

// CanEdit reports whether a submitted entry may still be changed.
// Edits stop at the stop-edit window, not at lock.
func (m *Monitor) CanEdit(contest *contracts.Contest, now time.Time) bool {
	timeToLock := contest.LockTime.Sub(now)
	return timeToLock > m.cfg.StopEditWindow
}
