package contracts

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want FailureClass
	}{
		{"source unavailable", fmt.Errorf("yahoo: %w", ErrSourceUnavailable), ClassTransient},
		{"session expired", fmt.Errorf("submit: %w", ErrSessionExpired), ClassTransient},
		{"authentication", fmt.Errorf("login: %w", ErrAuthentication), ClassFatal},
		{"data validation", ValidationErr("yahoo", "missing salary"), ClassFatal},
		{"no valid lineup", ErrNoValidLineup, ClassBusiness},
		{"unknown error defaults to transient", errors.New("boom"), ClassTransient},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.err))
		})
	}
}

func TestLineupHashIgnoresSlotOrder(t *testing.T) {
	a := &Lineup{Slots: []LineupSlot{
		{RosterPosition: "QB", PlayerID: "nfl.p.1"},
		{RosterPosition: "RB", PlayerID: "nfl.p.2"},
		{RosterPosition: "WR", PlayerID: "nfl.p.3"},
	}}
	b := &Lineup{Slots: []LineupSlot{
		{RosterPosition: "WR", PlayerID: "nfl.p.3"},
		{RosterPosition: "QB", PlayerID: "nfl.p.1"},
		{RosterPosition: "RB", PlayerID: "nfl.p.2"},
	}}
	c := &Lineup{Slots: []LineupSlot{
		{RosterPosition: "QB", PlayerID: "nfl.p.1"},
		{RosterPosition: "RB", PlayerID: "nfl.p.2"},
		{RosterPosition: "WR", PlayerID: "nfl.p.4"},
	}}

	assert.Equal(t, a.ComputeHash(), b.ComputeHash())
	assert.NotEqual(t, a.ComputeHash(), c.ComputeHash())
}

func TestLineupOverlap(t *testing.T) {
	a := &Lineup{Slots: []LineupSlot{
		{PlayerID: "p1"}, {PlayerID: "p2"}, {PlayerID: "p3"},
	}}
	b := &Lineup{Slots: []LineupSlot{
		{PlayerID: "p2"}, {PlayerID: "p3"}, {PlayerID: "p4"},
	}}

	assert.Equal(t, 2, a.Overlap(b))
	assert.Equal(t, 2, b.Overlap(a))
}

func TestContestFillRate(t *testing.T) {
	c := &Contest{TotalEntries: 70, EntryLimit: 100}
	assert.InDelta(t, 0.70, c.FillRate(), 1e-9)

	empty := &Contest{TotalEntries: 10, EntryLimit: 0}
	assert.Equal(t, 0.0, empty.FillRate())
}

func TestContestLocked(t *testing.T) {
	lock := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	c := &Contest{LockTime: lock}

	assert.False(t, c.Locked(lock.Add(-time.Minute)))
	assert.True(t, c.Locked(lock))
	assert.True(t, c.Locked(lock.Add(time.Minute)))
}

func TestPlayerOut(t *testing.T) {
	assert.True(t, (&PlayerPoolEntry{InjuryStatus: InjuryOut}).Out())
	assert.True(t, (&PlayerPoolEntry{InjuryStatus: InjuryInjured}).Out())
	assert.False(t, (&PlayerPoolEntry{InjuryStatus: InjuryQuestioned}).Out())
	assert.False(t, (&PlayerPoolEntry{InjuryStatus: ""}).Out())
}

func TestParseSport(t *testing.T) {
	s, err := ParseSport(" nfl ")
	assert.NoError(t, err)
	assert.Equal(t, SportNFL, s)

	_, err = ParseSport("cricket")
	assert.Error(t, err)
}
