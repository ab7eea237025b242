package contracts

import (
	"context"
	"time"
)

// ContestSource fetches contests and player pools from the contest host
type ContestSource interface {
	// ListContests returns currently listed contests for a sport.
	// Filtering for eligibility happens downstream, not here.
	ListContests(ctx context.Context, sport Sport) ([]Contest, error)

	// FetchPlayerPool returns the full player pool for a contest
	FetchPlayerPool(ctx context.Context, contest *Contest) ([]PlayerPoolEntry, error)
}

// ProjectionSource fetches player projections from one provider
type ProjectionSource interface {
	// Name identifies the provider in projection rows
	Name() string

	// FetchProjections returns projections for a sport. An empty slice
	// is a valid result (no slate today), not an error.
	FetchProjections(ctx context.Context, sport Sport) ([]Projection, error)
}

// Constraints bound a single optimizer run
type Constraints struct {
	ContestID  string
	SalaryCap  int
	Format     ContestFormat
	Sport      Sport
	MaxOverlap int // max shared players between any two generated lineups
	Count      int // lineups requested
}

// Optimizer builds lineups from a pool and projections
type Optimizer interface {
	// Generate returns up to cons.Count distinct lineups. Returns
	// ErrNoValidLineup when no roster satisfies the constraints.
	Generate(pool []PlayerPoolEntry, projections []Projection, cons Constraints) ([]Lineup, error)
}

// Session is an authenticated submission session
type Session struct {
	UserID    string
	CrumbCSRF string
	ExpiresAt time.Time
}

// SubmissionResult is the host's verdict on one lineup submission
type SubmissionResult struct {
	LineupID       int64
	Accepted       bool
	ConfirmationID string
	EntryID        string
	FailureReason  string
}

// Submitter places and edits lineup entries on the contest host
type Submitter interface {
	// Authenticate establishes a session with stored credentials
	Authenticate(ctx context.Context) (*Session, error)

	// Submit enters lineups into their contests. Each lineup gets its own
	// result; a rejected lineup never affects an accepted one.
	Submit(ctx context.Context, lineups []*Lineup) ([]SubmissionResult, error)

	// Edit replaces an already submitted entry's roster before lock
	Edit(ctx context.Context, lineup *Lineup) (*SubmissionResult, error)
}

// EventKind categorizes operator notifications
type EventKind string

const (
	EventEscalation EventKind = "escalation"
	EventJobDisable EventKind = "job_disabled"
	EventSwap       EventKind = "late_swap"
	EventSubmission EventKind = "submission"
)

// Notifier delivers operator notifications. Implementations are
// fire-and-forget; delivery failure never fails the calling job.
type Notifier interface {
	Notify(ctx context.Context, kind EventKind, message string, fields map[string]interface{})
}
