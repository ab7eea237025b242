package contracts

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Sport is the partition key for every entity in the system
type Sport string

const (
	SportNFL Sport = "NFL"
	SportNBA Sport = "NBA"
	SportNHL Sport = "NHL"
	SportMLB Sport = "MLB"
)

// ParseSport normalizes a sport code
func ParseSport(s string) (Sport, error) {
	sport := Sport(strings.ToUpper(strings.TrimSpace(s)))
	switch sport {
	case SportNFL, SportNBA, SportNHL, SportMLB:
		return sport, nil
	}
	return "", fmt.Errorf("unknown sport %q", s)
}

// ContestFormat distinguishes roster templates
type ContestFormat string

const (
	FormatClassic    ContestFormat = "classic"
	FormatSingleGame ContestFormat = "single-game"
)

// ContestStatus is the contest lifecycle state
type ContestStatus string

const (
	ContestUpcoming  ContestStatus = "upcoming"
	ContestLive      ContestStatus = "live"
	ContestCompleted ContestStatus = "completed"
	ContestCancelled ContestStatus = "cancelled"
)

// Contest is a Yahoo Daily Fantasy contest. Upserted by contest sync,
// updated (fill rate, status) on every sync until lock time, never deleted.
type Contest struct {
	ID               string        `json:"id"`
	SeriesID         int64         `json:"series_id"`
	Sport            Sport         `json:"sport"`
	Name             string        `json:"name"`
	EntryFee         float64       `json:"entry_fee"`
	MaxEntries       int           `json:"max_entries"`   // entries allowed per user
	TotalEntries     int           `json:"total_entries"` // current entry count
	EntryLimit       int           `json:"entry_limit"`   // total entry cap
	PrizePool        float64       `json:"prize_pool"`
	LockTime         time.Time     `json:"lock_time"`
	Format           ContestFormat `json:"format"`
	MultiEntry       bool          `json:"multi_entry"`
	Guaranteed       bool          `json:"guaranteed"`
	SalaryCap        int           `json:"salary_cap"`
	Status           ContestStatus `json:"status"`
	EntriesSubmitted int           `json:"entries_submitted"`
	UpdatedAt        time.Time     `json:"updated_at"`
}

// FillRate returns the filled fraction of the contest's entry cap
func (c *Contest) FillRate() float64 {
	if c.EntryLimit <= 0 {
		return 0
	}
	return float64(c.TotalEntries) / float64(c.EntryLimit)
}

// Locked reports whether the lock time has passed
func (c *Contest) Locked(now time.Time) bool {
	return !now.Before(c.LockTime)
}

// Injury status codes as the player pool reports them
const (
	InjuryOut        = "O"
	InjuryInjured    = "INJ"
	InjuryQuestioned = "Q"
	InjuryGameTime   = "GTD"
)

// PlayerPoolEntry is one player in a contest's pool. The whole pool is
// replaced on every sync; stale rows are superseded, never merged.
type PlayerPoolEntry struct {
	ContestID         string    `json:"contest_id"`
	PlayerID          string    `json:"player_id"` // e.g., "nfl.p.32723"
	PlayerGameCode    string    `json:"player_game_code"`
	Name              string    `json:"name"`
	Team              string    `json:"team"`
	Position          string    `json:"position"`
	EligiblePositions []string  `json:"eligible_positions"`
	Salary            int       `json:"salary"`
	GameCode          string    `json:"game_code"`
	GameTime          time.Time `json:"game_time"`
	Opponent          string    `json:"opponent"`
	InjuryStatus      string    `json:"injury_status"`
	InjuryNote        string    `json:"injury_note"`
	FPPG              float64   `json:"fppg"`
	SyncedAt          time.Time `json:"synced_at"`
}

// Out reports whether the player is ruled out and must not be rostered
func (p *PlayerPoolEntry) Out() bool {
	return p.InjuryStatus == InjuryOut || p.InjuryStatus == InjuryInjured
}

// EligibleFor reports whether the player can fill a roster slot
func (p *PlayerPoolEntry) EligibleFor(slot string) bool {
	if p.Position == slot {
		return true
	}
	for _, pos := range p.EligiblePositions {
		if pos == slot {
			return true
		}
	}
	return false
}

// Projection is one source's point projection for a player. Append-only;
// multiple rows per player may coexist, latest fetched_at wins for
// consumption. PlayerID stays empty until the row is matched to a pool
// player by name and team.
type Projection struct {
	ID         int64     `json:"id"`
	Sport      Sport     `json:"sport"`
	PlayerID   string    `json:"player_id,omitempty"`
	PlayerName string    `json:"player_name"`
	Team       string    `json:"team"`
	Position   string    `json:"position"`
	Source     string    `json:"source"`
	Points     float64   `json:"points"`
	Floor      float64   `json:"floor"`
	Ceiling    float64   `json:"ceiling"`
	Ownership  float64   `json:"ownership"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// LineupStatus is the lineup lifecycle state. Only the submission stage
// moves a lineup out of draft.
type LineupStatus string

const (
	LineupDraft     LineupStatus = "draft"
	LineupSubmitted LineupStatus = "submitted"
	LineupRejected  LineupStatus = "rejected"
)

// LineupSlot is one roster position assignment within a lineup
type LineupSlot struct {
	RosterPosition  string  `json:"roster_position"` // slot (e.g., FLEX, UTIL)
	PlayerID        string  `json:"player_id"`
	PlayerGameCode  string  `json:"player_game_code"`
	Name            string  `json:"name"`
	Position        string  `json:"position"` // player's actual position
	Salary          int     `json:"salary"`
	ProjectedPoints float64 `json:"projected_points"`
}

// Lineup is an ordered roster for exactly one contest
type Lineup struct {
	ID              int64        `json:"id"`
	ContestID       string       `json:"contest_id"`
	Slots           []LineupSlot `json:"slots"`
	TotalSalary     int          `json:"total_salary"`
	ProjectedPoints float64      `json:"projected_points"`
	Hash            string       `json:"hash"`
	Status          LineupStatus `json:"status"`
	EntryID         string       `json:"entry_id"` // external id, set after submission
	CreatedAt       time.Time    `json:"created_at"`
	SubmittedAt     *time.Time   `json:"submitted_at,omitempty"`
}

// ComputeHash derives a dedup hash from the sorted player ids
func (l *Lineup) ComputeHash() string {
	ids := make([]string, 0, len(l.Slots))
	for _, s := range l.Slots {
		ids = append(ids, s.PlayerID)
	}
	sort.Strings(ids)
	sum := md5.Sum([]byte(strings.Join(ids, "|")))
	return hex.EncodeToString(sum[:])
}

// HasPlayer reports whether the player already occupies a slot
func (l *Lineup) HasPlayer(playerID string) bool {
	for _, s := range l.Slots {
		if s.PlayerID == playerID {
			return true
		}
	}
	return false
}

// Overlap counts players shared with another lineup
func (l *Lineup) Overlap(other *Lineup) int {
	n := 0
	for _, s := range other.Slots {
		if l.HasPlayer(s.PlayerID) {
			n++
		}
	}
	return n
}

// SubmissionRecord is one submission attempt for a lineup. Append-only
// audit trail; retry_count strictly increases per lineup.
type SubmissionRecord struct {
	ID             int64     `json:"id"`
	LineupID       int64     `json:"lineup_id"`
	SubmittedAt    time.Time `json:"submitted_at"`
	ConfirmationID string    `json:"confirmation_id,omitempty"`
	FailureReason  string    `json:"failure_reason,omitempty"`
	RetryCount     int       `json:"retry_count"`
}

// Outcome is the terminal result of a job run
type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeSkipped Outcome = "skipped"
)

// JobRun is one entry in the orchestrator's execution ledger.
// Never mutated after EndedAt is set.
type JobRun struct {
	ID             string                 `json:"id"`
	JobName        string                 `json:"job_name"`
	ScheduledAt    time.Time              `json:"scheduled_at"`
	StartedAt      time.Time              `json:"started_at"`
	EndedAt        time.Time              `json:"ended_at"`
	Outcome        Outcome                `json:"outcome"`
	Error          string                 `json:"error,omitempty"`
	Attempts       int                    `json:"attempts"`
	ItemsProcessed int                    `json:"items_processed"`
	Details        map[string]interface{} `json:"details,omitempty"`
}

// Duration returns the wall-clock run time
func (r *JobRun) Duration() time.Duration {
	return r.EndedAt.Sub(r.StartedAt)
}
