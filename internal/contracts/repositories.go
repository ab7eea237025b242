package contracts

import (
	"context"
	"time"
)

// ContestRepository persists contests. Upsert-only; rows are never deleted
// so completed contests remain for audit.
type ContestRepository interface {
	Upsert(ctx context.Context, contests []Contest) (int, error)
	GetByID(ctx context.Context, id string) (*Contest, error)
	ListUpcoming(ctx context.Context, sport Sport) ([]Contest, error)
	ListEligible(ctx context.Context, sport Sport, maxFee float64) ([]Contest, error)
	UpdateStatus(ctx context.Context, id string, status ContestStatus) error
	IncrementSubmitted(ctx context.Context, id string, n int) error
}

// PlayerPoolRepository persists player pools. Replace is atomic per
// contest; readers never observe a partially written pool.
type PlayerPoolRepository interface {
	Replace(ctx context.Context, contestID string, entries []PlayerPoolEntry) error
	GetByContest(ctx context.Context, contestID string) ([]PlayerPoolEntry, error)
	LastSyncedAt(ctx context.Context, contestID string) (time.Time, error)
}

// ProjectionRepository persists projections append-only
type ProjectionRepository interface {
	Insert(ctx context.Context, projections []Projection) (int, error)
	// Latest returns the newest projection per player for a sport/source
	Latest(ctx context.Context, sport Sport, source string) ([]Projection, error)
	LastFetchedAt(ctx context.Context, sport Sport, source string) (time.Time, error)
}

// LineupRepository persists generated lineups
type LineupRepository interface {
	Insert(ctx context.Context, lineups []*Lineup) error
	GetByID(ctx context.Context, id int64) (*Lineup, error)
	ListByContest(ctx context.Context, contestID string) ([]Lineup, error)
	ListByStatus(ctx context.Context, status LineupStatus) ([]Lineup, error)
	// ExistingHashes returns the dedup hashes already stored for a contest
	ExistingHashes(ctx context.Context, contestID string) (map[string]bool, error)
	UpdateStatus(ctx context.Context, id int64, status LineupStatus) error
	MarkSubmitted(ctx context.Context, id int64, entryID string, at time.Time) error
	ReplaceSlots(ctx context.Context, id int64, slots []LineupSlot, totalSalary int, projected float64) error
}

// SubmissionRepository persists the append-only submission audit trail
type SubmissionRepository interface {
	Record(ctx context.Context, rec *SubmissionRecord) error
	CountAttempts(ctx context.Context, lineupID int64) (int, error)
	ListByLineup(ctx context.Context, lineupID int64) ([]SubmissionRecord, error)
}

// JobRunRepository persists the orchestrator's execution ledger
type JobRunRepository interface {
	Record(ctx context.Context, run *JobRun) error
	ListRecent(ctx context.Context, jobName string, limit int) ([]JobRun, error)
}
