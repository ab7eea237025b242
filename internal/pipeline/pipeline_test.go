package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// In-memory fakes. Each records enough to assert what a stage did.

type fakeContests struct {
	rows       map[string]*contracts.Contest
	upserts    int
	statusSets map[string]contracts.ContestStatus
}

func newFakeContests() *fakeContests {
	return &fakeContests{rows: map[string]*contracts.Contest{}, statusSets: map[string]contracts.ContestStatus{}}
}

func (f *fakeContests) Upsert(_ context.Context, contests []contracts.Contest) (int, error) {
	for i := range contests {
		c := contests[i]
		if c.Status == "" {
			c.Status = contracts.ContestUpcoming
		}
		f.rows[c.ID] = &c
		f.upserts++
	}
	return len(contests), nil
}

func (f *fakeContests) GetByID(_ context.Context, id string) (*contracts.Contest, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *c
	return &cp, nil
}

func (f *fakeContests) ListUpcoming(_ context.Context, sport contracts.Sport) ([]contracts.Contest, error) {
	var out []contracts.Contest
	for _, c := range f.rows {
		if c.Sport == sport && c.Status == contracts.ContestUpcoming {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContests) ListEligible(_ context.Context, sport contracts.Sport, maxFee float64) ([]contracts.Contest, error) {
	var out []contracts.Contest
	for _, c := range f.rows {
		if c.Sport == sport && c.Status == contracts.ContestUpcoming &&
			c.Guaranteed && c.MultiEntry && c.EntryFee <= maxFee {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeContests) UpdateStatus(_ context.Context, id string, status contracts.ContestStatus) error {
	f.statusSets[id] = status
	if c, ok := f.rows[id]; ok {
		c.Status = status
	}
	return nil
}

func (f *fakeContests) IncrementSubmitted(_ context.Context, id string, n int) error {
	if c, ok := f.rows[id]; ok {
		c.EntriesSubmitted += n
	}
	return nil
}

type fakePools struct {
	pools    map[string][]contracts.PlayerPoolEntry
	syncedAt map[string]time.Time
	replaces int
}

func newFakePools() *fakePools {
	return &fakePools{pools: map[string][]contracts.PlayerPoolEntry{}, syncedAt: map[string]time.Time{}}
}

func (f *fakePools) Replace(_ context.Context, contestID string, entries []contracts.PlayerPoolEntry) error {
	f.pools[contestID] = entries
	f.syncedAt[contestID] = time.Now()
	f.replaces++
	return nil
}

func (f *fakePools) GetByContest(_ context.Context, contestID string) ([]contracts.PlayerPoolEntry, error) {
	return f.pools[contestID], nil
}

func (f *fakePools) LastSyncedAt(_ context.Context, contestID string) (time.Time, error) {
	return f.syncedAt[contestID], nil
}

type fakeProjections struct {
	rows      []contracts.Projection
	fetchedAt time.Time
}

func (f *fakeProjections) Insert(_ context.Context, projections []contracts.Projection) (int, error) {
	f.rows = append(f.rows, projections...)
	f.fetchedAt = time.Now()
	return len(projections), nil
}

func (f *fakeProjections) Latest(_ context.Context, sport contracts.Sport, source string) ([]contracts.Projection, error) {
	var out []contracts.Projection
	for _, p := range f.rows {
		if p.Sport == sport && p.Source == source {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProjections) LastFetchedAt(_ context.Context, _ contracts.Sport, _ string) (time.Time, error) {
	return f.fetchedAt, nil
}

type fakeLineups struct {
	rows   map[int64]*contracts.Lineup
	nextID int64
}

func newFakeLineups() *fakeLineups { return &fakeLineups{rows: map[int64]*contracts.Lineup{}} }

func (f *fakeLineups) Insert(_ context.Context, lineups []*contracts.Lineup) error {
	for _, l := range lineups {
		f.nextID++
		l.ID = f.nextID
		if l.Hash == "" {
			l.Hash = l.ComputeHash()
		}
		if l.Status == "" {
			l.Status = contracts.LineupDraft
		}
		cp := *l
		f.rows[l.ID] = &cp
	}
	return nil
}

func (f *fakeLineups) GetByID(_ context.Context, id int64) (*contracts.Lineup, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	cp := *l
	return &cp, nil
}

func (f *fakeLineups) ListByContest(_ context.Context, contestID string) ([]contracts.Lineup, error) {
	var out []contracts.Lineup
	for _, l := range f.rows {
		if l.ContestID == contestID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLineups) ListByStatus(_ context.Context, status contracts.LineupStatus) ([]contracts.Lineup, error) {
	var out []contracts.Lineup
	for _, l := range f.rows {
		if l.Status == status {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLineups) ExistingHashes(_ context.Context, contestID string) (map[string]bool, error) {
	out := map[string]bool{}
	for _, l := range f.rows {
		if l.ContestID == contestID {
			out[l.Hash] = true
		}
	}
	return out, nil
}

func (f *fakeLineups) UpdateStatus(_ context.Context, id int64, status contracts.LineupStatus) error {
	f.rows[id].Status = status
	return nil
}

func (f *fakeLineups) MarkSubmitted(_ context.Context, id int64, entryID string, at time.Time) error {
	l := f.rows[id]
	l.Status = contracts.LineupSubmitted
	l.EntryID = entryID
	l.SubmittedAt = &at
	return nil
}

func (f *fakeLineups) ReplaceSlots(_ context.Context, id int64, slots []contracts.LineupSlot, totalSalary int, projected float64) error {
	l := f.rows[id]
	l.Slots = slots
	l.TotalSalary = totalSalary
	l.ProjectedPoints = projected
	l.Hash = l.ComputeHash()
	return nil
}

type fakeSubmissions struct {
	records []contracts.SubmissionRecord
}

func (f *fakeSubmissions) Record(_ context.Context, rec *contracts.SubmissionRecord) error {
	f.records = append(f.records, *rec)
	return nil
}

func (f *fakeSubmissions) CountAttempts(_ context.Context, lineupID int64) (int, error) {
	n := 0
	for _, r := range f.records {
		if r.LineupID == lineupID {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubmissions) ListByLineup(_ context.Context, lineupID int64) ([]contracts.SubmissionRecord, error) {
	var out []contracts.SubmissionRecord
	for _, r := range f.records {
		if r.LineupID == lineupID {
			out = append(out, r)
		}
	}
	return out, nil
}

type fakeSource struct {
	contests   []contracts.Contest
	pools      map[string][]contracts.PlayerPoolEntry
	poolCalls  int
	listsCalls int
}

func (f *fakeSource) ListContests(_ context.Context, _ contracts.Sport) ([]contracts.Contest, error) {
	f.listsCalls++
	return f.contests, nil
}

func (f *fakeSource) FetchPlayerPool(_ context.Context, contest *contracts.Contest) ([]contracts.PlayerPoolEntry, error) {
	f.poolCalls++
	return f.pools[contest.ID], nil
}

type fakeProjSource struct {
	projections []contracts.Projection
}

func (f *fakeProjSource) Name() string { return "testsource" }

func (f *fakeProjSource) FetchProjections(_ context.Context, _ contracts.Sport) ([]contracts.Projection, error) {
	return f.projections, nil
}

type fakeOptimizer struct {
	lineups []contracts.Lineup
	err     error
	calls   int
	lastN   int
}

func (f *fakeOptimizer) Generate(_ []contracts.PlayerPoolEntry, _ []contracts.Projection, cons contracts.Constraints) ([]contracts.Lineup, error) {
	f.calls++
	f.lastN = cons.Count
	if f.err != nil {
		return nil, f.err
	}
	out := f.lineups
	if len(out) > cons.Count {
		out = out[:cons.Count]
	}
	for i := range out {
		out[i].ContestID = cons.ContestID
	}
	return out, nil
}

type fakeSubmitter struct {
	results     map[int64]contracts.SubmissionResult
	editResult  *contracts.SubmissionResult
	submitCalls int
	editCalls   int
}

func (f *fakeSubmitter) Authenticate(_ context.Context) (*contracts.Session, error) {
	return &contracts.Session{UserID: "u1"}, nil
}

func (f *fakeSubmitter) Submit(_ context.Context, lineups []*contracts.Lineup) ([]contracts.SubmissionResult, error) {
	f.submitCalls++
	var out []contracts.SubmissionResult
	for _, l := range lineups {
		if res, ok := f.results[l.ID]; ok {
			out = append(out, res)
		} else {
			out = append(out, contracts.SubmissionResult{LineupID: l.ID, Accepted: true, EntryID: "e1", ConfirmationID: "c1"})
		}
	}
	return out, nil
}

func (f *fakeSubmitter) Edit(_ context.Context, lineup *contracts.Lineup) (*contracts.SubmissionResult, error) {
	f.editCalls++
	if f.editResult != nil {
		return f.editResult, nil
	}
	return &contracts.SubmissionResult{LineupID: lineup.ID, Accepted: true, EntryID: lineup.EntryID}, nil
}

type fakeNotifier struct {
	events []contracts.EventKind
}

func (f *fakeNotifier) Notify(_ context.Context, kind contracts.EventKind, _ string, _ map[string]interface{}) {
	f.events = append(f.events, kind)
}

type fixture struct {
	svc         *Service
	contests    *fakeContests
	pools       *fakePools
	projections *fakeProjections
	lineups     *fakeLineups
	submissions *fakeSubmissions
	source      *fakeSource
	projSource  *fakeProjSource
	optimizer   *fakeOptimizer
	submitter   *fakeSubmitter
	notifier    *fakeNotifier
	now         time.Time
}

func newFixture() *fixture {
	cfg := &config.Config{}
	cfg.Lineups = config.LineupConfig{CountPerContest: 2, SalaryCap: 200, MaxOverlap: 6, MaxEntryFee: 1.0}
	cfg.Scheduler.FreshnessThreshold = 30 * time.Minute
	cfg.Scheduler.MaxRetries = 1
	cfg.Fill = config.FillConfig{FillRateThreshold: 0.70, TimeBeforeLock: 2 * time.Hour, StopEditWindow: 5 * time.Minute}

	f := &fixture{
		contests:    newFakeContests(),
		pools:       newFakePools(),
		projections: &fakeProjections{},
		lineups:     newFakeLineups(),
		submissions: &fakeSubmissions{},
		source:      &fakeSource{pools: map[string][]contracts.PlayerPoolEntry{}},
		projSource:  &fakeProjSource{},
		optimizer:   &fakeOptimizer{},
		submitter:   &fakeSubmitter{results: map[int64]contracts.SubmissionResult{}},
		notifier:    &fakeNotifier{},
		now:         time.Date(2026, 1, 10, 12, 0, 0, 0, time.UTC),
	}
	f.svc = New(Deps{
		Logger:      logger.NewNop(),
		Config:      cfg,
		Contests:    f.contests,
		Pools:       f.pools,
		Projections: f.projections,
		Lineups:     f.lineups,
		Submissions: f.submissions,
		Source:      f.source,
		ProjSource:  f.projSource,
		Optimizer:   f.optimizer,
		Submitter:   f.submitter,
		Notifier:    f.notifier,
	})
	f.svc.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) contest(id string, lockIn time.Duration) contracts.Contest {
	return contracts.Contest{
		ID:         id,
		Sport:      contracts.SportNFL,
		Name:       "Test Contest " + id,
		EntryFee:   0.25,
		MaxEntries: 5,
		EntryLimit: 100,
		LockTime:   f.now.Add(lockIn),
		Format:     contracts.FormatClassic,
		MultiEntry: true,
		Guaranteed: true,
		SalaryCap:  200,
		Status:     contracts.ContestUpcoming,
	}
}

func lineupWithPlayers(ids ...string) contracts.Lineup {
	l := contracts.Lineup{}
	for _, id := range ids {
		l.Slots = append(l.Slots, contracts.LineupSlot{RosterPosition: "QB", PlayerID: id, Salary: 20, ProjectedPoints: 10})
		l.TotalSalary += 20
		l.ProjectedPoints += 10
	}
	return l
}

func TestSyncContestsMarksLockedAndReturnsEligible(t *testing.T) {
	f := newFixture()
	open := f.contest("c1", 4*time.Hour)
	locked := f.contest("c2", -time.Minute)
	pricey := f.contest("c3", 4*time.Hour)
	pricey.EntryFee = 25.0
	f.source.contests = []contracts.Contest{open, locked, pricey}

	result, err := f.svc.SyncContests(context.Background(), contracts.SportNFL)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Fetched)
	assert.Equal(t, 1, result.Locked)
	assert.Equal(t, contracts.ContestLive, f.contests.statusSets["c2"])
	require.Len(t, result.Eligible, 1, "locked and over-fee contests excluded")
	assert.Equal(t, "c1", result.Eligible[0].ID)
}

func TestSyncPlayerPoolsReplacesEveryEligiblePool(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 4*time.Hour)
	c2 := f.contest("c2", 5*time.Hour)
	f.contests.rows["c1"] = &c1
	f.contests.rows["c2"] = &c2
	f.source.pools["c1"] = []contracts.PlayerPoolEntry{{PlayerID: "p1"}}
	f.source.pools["c2"] = []contracts.PlayerPoolEntry{{PlayerID: "p2"}}

	n, err := f.svc.SyncPlayerPools(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, f.pools.replaces)
}

func TestSyncProjectionsEmptySlateSucceeds(t *testing.T) {
	f := newFixture()

	n, err := f.svc.SyncProjections(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Empty(t, f.projections.rows)
}

func TestResolveProjections(t *testing.T) {
	pool := []contracts.PlayerPoolEntry{
		{PlayerID: "nfl.p.1", Name: "Odell Beckham Jr.", Team: "BAL"},
		{PlayerID: "nfl.p.2", Name: "Josh Allen", Team: "BUF"},
		{PlayerID: "nfl.p.3", Name: "Josh Allen", Team: "JAC"},
		{PlayerID: "nfl.p.4", Name: "Amon-Ra St. Brown", Team: "DET"},
	}
	projections := []contracts.Projection{
		{PlayerName: "Odell Beckham", Team: "BAL"},
		{PlayerName: "Josh Allen", Team: "BUF"},
		{PlayerName: "Josh Allen", Team: ""},
		{PlayerName: "Amon Ra St Brown", Team: "DET"},
		{PlayerName: "Nobody Here", Team: "KC"},
	}

	resolved := resolveProjections(pool, projections)

	assert.Equal(t, "nfl.p.1", resolved[0].PlayerID, "Jr. suffix stripped")
	assert.Equal(t, "nfl.p.2", resolved[1].PlayerID)
	assert.Empty(t, resolved[2].PlayerID, "ambiguous name-only match stays unmatched")
	assert.Equal(t, "nfl.p.4", resolved[3].PlayerID, "punctuation normalized")
	assert.Empty(t, resolved[4].PlayerID)
}

func TestGenerateRecordsNoValidLineupPerContest(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 4*time.Hour)
	f.contests.rows["c1"] = &c1
	f.pools.pools["c1"] = []contracts.PlayerPoolEntry{{PlayerID: "p1"}}
	f.pools.syncedAt["c1"] = f.now
	f.projections.fetchedAt = f.now
	f.optimizer.err = contracts.ErrNoValidLineup

	result, err := f.svc.GenerateLineups(context.Background(), contracts.SportNFL)
	require.NoError(t, err, "no valid lineup is a recorded outcome, not a run failure")
	assert.Equal(t, []string{"c1"}, result.NoLineup)
	assert.Zero(t, result.Generated)
}

func TestGenerateCapsCountAtMaxEntries(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 4*time.Hour)
	c1.MaxEntries = 1
	f.contests.rows["c1"] = &c1
	f.pools.pools["c1"] = []contracts.PlayerPoolEntry{{PlayerID: "p1"}}
	f.pools.syncedAt["c1"] = f.now
	f.projections.fetchedAt = f.now
	f.optimizer.lineups = []contracts.Lineup{lineupWithPlayers("p1"), lineupWithPlayers("p2")}

	result, err := f.svc.GenerateLineups(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, f.optimizer.lastN, "request capped at max entries per user")
}

func TestGenerateSkipsContestAlreadyAtCapacity(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 4*time.Hour)
	f.contests.rows["c1"] = &c1
	f.pools.syncedAt["c1"] = f.now
	f.projections.fetchedAt = f.now

	l1 := lineupWithPlayers("p1")
	l2 := lineupWithPlayers("p2")
	l1.ContestID, l2.ContestID = "c1", "c1"
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&l1, &l2}))

	result, err := f.svc.GenerateLineups(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Zero(t, result.Generated)
	assert.Zero(t, f.optimizer.calls, "count per contest already reached")
}

func TestGenerateRefreshesStaleInputs(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 4*time.Hour)
	f.contests.rows["c1"] = &c1
	f.source.pools["c1"] = []contracts.PlayerPoolEntry{{PlayerID: "p1"}}
	f.projSource.projections = []contracts.Projection{{Sport: contracts.SportNFL, PlayerName: "A", Source: "testsource", Points: 10}}
	f.optimizer.lineups = []contracts.Lineup{lineupWithPlayers("p1")}

	// No synced_at recorded, so both inputs count as stale
	result, err := f.svc.GenerateLineups(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Generated)
	assert.Equal(t, 1, f.source.poolCalls, "stale pool re-fetched inline")
	assert.NotEmpty(t, f.projections.rows, "stale projections re-fetched inline")
}

func TestSubmitDeferredUntilThreshold(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 6*time.Hour)
	c1.TotalEntries = 10 // 10% full, lock far away
	f.source.contests = []contracts.Contest{c1}

	l := lineupWithPlayers("p1")
	l.ContestID = "c1"
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&l}))

	result, err := f.svc.SubmitDue(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Zero(t, result.Submitted)
	assert.Equal(t, 1, result.Waiting)
	assert.Zero(t, f.submitter.submitCalls)
}

func TestSubmitInsideStopEditWindowNeverFires(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 2*time.Minute)
	c1.TotalEntries = 100 // full, but inside the stop-edit window
	f.source.contests = []contracts.Contest{c1}

	l := lineupWithPlayers("p1")
	l.ContestID = "c1"
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&l}))

	result, err := f.svc.SubmitDue(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Zero(t, result.Submitted)
	assert.Zero(t, f.submitter.submitCalls)
}

func TestSubmitPartialBatchKeepsAcceptedEntries(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", time.Hour) // inside TimeBeforeLock, outside stop-edit
	f.source.contests = []contracts.Contest{c1}

	good := lineupWithPlayers("p1")
	bad := lineupWithPlayers("p2")
	good.ContestID, bad.ContestID = "c1", "c1"
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&good, &bad}))
	f.submitter.results[bad.ID] = contracts.SubmissionResult{LineupID: bad.ID, FailureReason: "contest full"}

	result, err := f.svc.SubmitDue(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Submitted)
	assert.Equal(t, 1, result.Rejected)

	stored, _ := f.lineups.GetByID(context.Background(), good.ID)
	assert.Equal(t, contracts.LineupSubmitted, stored.Status)
	assert.Equal(t, "e1", stored.EntryID)

	failed, _ := f.lineups.GetByID(context.Background(), bad.ID)
	assert.Equal(t, contracts.LineupDraft, failed.Status, "first rejection leaves the draft for retry")
	assert.Len(t, f.submissions.records, 2, "both verdicts audited")
	assert.Equal(t, 1, f.contests.rows["c1"].EntriesSubmitted)
}

func TestSubmitExhaustedRetriesRejectsAndEscalates(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", time.Hour)
	f.source.contests = []contracts.Contest{c1}

	l := lineupWithPlayers("p1")
	l.ContestID = "c1"
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&l}))
	f.submitter.results[l.ID] = contracts.SubmissionResult{LineupID: l.ID, FailureReason: "invalid roster"}

	// MaxRetries=1: first rejection retries, second is terminal
	_, err := f.svc.SubmitDue(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	stored, _ := f.lineups.GetByID(context.Background(), l.ID)
	assert.Equal(t, contracts.LineupDraft, stored.Status)

	f.source.contests = []contracts.Contest{c1}
	_, err = f.svc.SubmitDue(context.Background(), contracts.SportNFL)
	require.NoError(t, err)

	stored, _ = f.lineups.GetByID(context.Background(), l.ID)
	assert.Equal(t, contracts.LineupRejected, stored.Status)
	assert.Contains(t, f.notifier.events, contracts.EventEscalation)
}

func TestMonitorAndSwapEditsRuledOutStarter(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", time.Hour)
	f.contests.rows["c1"] = &c1

	l := contracts.Lineup{
		ContestID: "c1",
		Slots: []contracts.LineupSlot{
			{RosterPosition: "QB", PlayerID: "nfl.p.1", Name: "Hurt Guy", Position: "QB", Salary: 30, ProjectedPoints: 20},
			{RosterPosition: "RB", PlayerID: "nfl.p.2", Name: "Fine Guy", Position: "RB", Salary: 25, ProjectedPoints: 15},
		},
		TotalSalary:     55,
		ProjectedPoints: 35,
		Status:          contracts.LineupSubmitted,
		EntryID:         "entry-1",
	}
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&l}))
	f.lineups.rows[l.ID].Status = contracts.LineupSubmitted

	f.source.pools["c1"] = []contracts.PlayerPoolEntry{
		{ContestID: "c1", PlayerID: "nfl.p.1", Name: "Hurt Guy", Position: "QB", Salary: 30, InjuryStatus: contracts.InjuryOut, FPPG: 20},
		{ContestID: "c1", PlayerID: "nfl.p.2", Name: "Fine Guy", Position: "RB", Salary: 25, FPPG: 15},
		{ContestID: "c1", PlayerID: "nfl.p.3", Name: "Backup QB", Position: "QB", Salary: 28, FPPG: 17},
	}

	result, err := f.svc.MonitorAndSwap(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Lineups)
	assert.Equal(t, 1, result.Swapped)
	assert.Equal(t, 1, f.submitter.editCalls)
	assert.Contains(t, f.notifier.events, contracts.EventSwap)

	stored, _ := f.lineups.GetByID(context.Background(), l.ID)
	assert.Equal(t, "nfl.p.3", stored.Slots[0].PlayerID)
	assert.Equal(t, contracts.LineupSubmitted, stored.Status, "swap edits never change lifecycle state")
}

func TestMonitorAndSwapSkipsStopEditWindow(t *testing.T) {
	f := newFixture()
	c1 := f.contest("c1", 2*time.Minute)
	f.contests.rows["c1"] = &c1

	l := lineupWithPlayers("nfl.p.1")
	l.ContestID = "c1"
	require.NoError(t, f.lineups.Insert(context.Background(), []*contracts.Lineup{&l}))
	f.lineups.rows[l.ID].Status = contracts.LineupSubmitted

	result, err := f.svc.MonitorAndSwap(context.Background(), contracts.SportNFL)
	require.NoError(t, err)
	assert.Zero(t, result.Lineups)
	assert.Zero(t, f.source.poolCalls, "no pool fetch inside the stop-edit window")
}
