package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/httputil"
	"github.com/wonny/dfs/backend/pkg/logger"
)

func testClient(t *testing.T, baseURL, authURL string) *Client {
	t.Helper()
	cfg := &config.Config{}
	cfg.Yahoo.BaseURL = baseURL
	cfg.Yahoo.AuthURL = authURL
	cfg.Yahoo.Username = "user"
	cfg.Yahoo.Password = "pass"
	cfg.Yahoo.RateLimit = 100
	cfg.Yahoo.RateWindow = time.Second

	log := logger.NewNop()
	return NewClient(httputil.New(log).DisableRetry(), log, cfg)
}

func TestParseContest(t *testing.T) {
	raw := &apiContest{
		ID:                 123,
		SeriesID:           9,
		Title:              "NFL $0.25 GPP",
		PaidEntryFee:       money{Value: 0.25},
		PaidTotalPrize:     money{Value: 500},
		MultipleEntryLimit: 10,
		EntryCount:         70,
		EntryLimit:         100,
		StartTime:          time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC).UnixMilli(),
		Guaranteed:         true,
		MultipleEntry:      true,
		SlateType:          "MULTI_GAME",
	}

	c, err := parseContest(raw, contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, "123", c.ID)
	assert.Equal(t, contracts.FormatClassic, c.Format)
	assert.Equal(t, 200, c.SalaryCap, "missing cap defaults to 200")
	assert.InDelta(t, 0.70, c.FillRate(), 1e-9)

	raw.SlateType = "SINGLE_GAME"
	c, err = parseContest(raw, contracts.SportNFL)
	require.NoError(t, err)
	assert.Equal(t, contracts.FormatSingleGame, c.Format)
}

func TestParseContestValidation(t *testing.T) {
	_, err := parseContest(&apiContest{StartTime: 1}, contracts.SportNFL)
	assert.True(t, errors.Is(err, contracts.ErrDataValidation), "missing id is fatal")

	_, err = parseContest(&apiContest{ID: 5}, contracts.SportNFL)
	assert.True(t, errors.Is(err, contracts.ErrDataValidation), "missing start time is fatal")
}

func TestParsePlayer(t *testing.T) {
	raw := &apiPlayer{
		Code:              "nfl.p.32723",
		PlayerGameCode:    "nfl.p.32723$nfl.g.135",
		FirstName:         "Josh",
		LastName:          "Allen",
		Team:              apiTeam{Abbr: "BUF"},
		PrimaryPosition:   "QB",
		EligiblePositions: []string{"QB"},
		Salary:            38,
		Game: apiGame{
			Code:     "nfl.g.135",
			HomeTeam: apiTeam{Abbr: "BUF"},
			AwayTeam: apiTeam{Abbr: "NYJ"},
		},
		Status: "Q",
		FPPG:   22.4,
	}

	p, err := parsePlayer(raw, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Josh Allen", p.Name)
	assert.Equal(t, "NYJ", p.Opponent)
	assert.False(t, p.Out())

	raw.Salary = 0
	_, err = parsePlayer(raw, "c1")
	assert.True(t, errors.Is(err, contracts.ErrDataValidation))
}

func TestCheckStatusTaxonomy(t *testing.T) {
	tests := []struct {
		code int
		want error
	}{
		{http.StatusOK, nil},
		{http.StatusUnauthorized, contracts.ErrSessionExpired},
		{http.StatusForbidden, contracts.ErrSessionExpired},
		{http.StatusTooManyRequests, contracts.ErrSourceUnavailable},
		{http.StatusBadGateway, contracts.ErrSourceUnavailable},
		{http.StatusBadRequest, contracts.ErrDataValidation},
	}

	for _, tt := range tests {
		err := checkStatus(&http.Response{StatusCode: tt.code})
		if tt.want == nil {
			assert.NoError(t, err)
		} else {
			assert.True(t, errors.Is(err, tt.want), "status %d", tt.code)
		}
	}
}

func TestAuthenticateRejectedCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL+"/auth")
	_, err := c.Authenticate(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrAuthentication))
}

func TestSubmitReauthenticatesOnceOnStaleSession(t *testing.T) {
	var authCalls, entryCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/auth", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&authCalls, 1)
		fmt.Fprint(w, `{"userId":"u1","crumb":"abc","expiresIn":3600}`)
	})
	mux.HandleFunc("/contestEntries", func(w http.ResponseWriter, r *http.Request) {
		// First entry attempt hits a stale session
		if atomic.AddInt32(&entryCalls, 1) == 1 {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, `{"accepted":true,"entryId":"e9","confirmationId":"conf-1"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := testClient(t, srv.URL, srv.URL+"/auth")

	lineup := &contracts.Lineup{
		ID:        7,
		ContestID: "c1",
		Slots:     []contracts.LineupSlot{{RosterPosition: "QB", PlayerGameCode: "nfl.p.1$nfl.g.2"}},
	}

	results, err := c.Submit(context.Background(), []*contracts.Lineup{lineup})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Accepted)
	assert.Equal(t, "e9", results[0].EntryID)
	assert.Equal(t, int32(2), atomic.LoadInt32(&authCalls), "one re-auth after the stale session")
}

func TestEditRequiresEntryID(t *testing.T) {
	c := testClient(t, "http://localhost", "http://localhost/auth")
	_, err := c.Edit(context.Background(), &contracts.Lineup{ID: 1})
	assert.True(t, errors.Is(err, contracts.ErrDataValidation))
}
