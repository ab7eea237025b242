package fantasyfuel

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/httputil"
	"github.com/wonny/dfs/backend/pkg/logger"
	"github.com/wonny/dfs/backend/pkg/redis"
)

// SourceName tags projection rows produced by this client
const SourceName = "dailyfantasyfuel"

// sportPaths maps sports to their URL path on the projections site
var sportPaths = map[contracts.Sport]string{
	contracts.SportNFL: "nfl",
	contracts.SportNBA: "nba",
	contracts.SportMLB: "mlb",
	contracts.SportNHL: "nhl",
}

// positionMap normalizes site positions to Yahoo positions
var positionMap = map[string]string{
	"DST": "DEF",
	"LW":  "W",
	"RW":  "W",
}

// Client scrapes player projections from DailyFantasyFuel.
// FanDuel projections are used since Yahoo scoring tracks FanDuel's.
// ⭐ SSOT: DailyFantasyFuel 조회는 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string

	cache    *redis.Cache
	cacheTTL time.Duration
}

// NewClient creates a new DailyFantasyFuel client
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg *config.Config) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    cfg.FantasyFuel.BaseURL,
	}
}

// WithCache short-circuits repeat fetches within ttl. Inline freshness
// refreshes during generation would otherwise re-scrape the same page.
func (c *Client) WithCache(cache *redis.Cache, ttl time.Duration) *Client {
	c.cache = cache
	c.cacheTTL = ttl
	return c
}

// Name identifies this provider in projection rows
func (c *Client) Name() string { return SourceName }

// FetchProjections scrapes the current slate's projections for a sport.
// An empty slate is a valid result, not an error.
func (c *Client) FetchProjections(ctx context.Context, sport contracts.Sport) ([]contracts.Projection, error) {
	path, ok := sportPaths[sport]
	if !ok {
		return nil, fmt.Errorf("sport %s not supported by %s", sport, SourceName)
	}

	cacheKey := fmt.Sprintf("projections:%s", path)
	if c.cache != nil {
		var cached []contracts.Projection
		if hit, err := c.cache.Get(ctx, cacheKey, &cached); err == nil && hit {
			return cached, nil
		}
	}

	url := fmt.Sprintf("%s/%s/projections/fanduel", c.baseURL, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, contracts.SourceErr(SourceName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s: status %d: %w", SourceName, resp.StatusCode, contracts.ErrSourceUnavailable)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, contracts.SourceErr(SourceName, err)
	}

	projections := parseProjectionsTable(doc, sport)

	if c.cache != nil && len(projections) > 0 {
		if err := c.cache.Set(ctx, cacheKey, projections, c.cacheTTL); err != nil {
			c.logger.WithError(err).Debug("Projection cache write failed")
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"sport": sport,
		"count": len(projections),
	}).Debug("Fetched projections")

	return projections, nil
}

// parseProjectionsTable extracts player rows from the projections page.
// The first table holds two header rows and a separator before data;
// unparseable rows are dropped, not fatal.
func parseProjectionsTable(doc *goquery.Document, sport contracts.Sport) []contracts.Projection {
	now := time.Now()
	var projections []contracts.Projection

	doc.Find("table").First().Find("tr").Each(func(i int, row *goquery.Selection) {
		if i < 3 {
			return
		}
		if p, ok := parsePlayerRow(row, sport); ok {
			p.FetchedAt = now
			projections = append(projections, p)
		}
	})

	return projections
}

// cell column layout differs per sport: NBA adds a START column,
// NFL and NBA carry a DvP column that the others lack
func projectionColumn(sport contracts.Sport) (teamIdx, projIdx int) {
	switch sport {
	case contracts.SportNBA:
		return 5, 8
	case contracts.SportNFL:
		return 4, 7
	default:
		return 4, 6
	}
}

func parsePlayerRow(row *goquery.Selection, sport contracts.Sport) (contracts.Projection, bool) {
	cells := row.Find("td")
	if cells.Length() < 8 {
		return contracts.Projection{}, false
	}

	text := func(i int) string {
		return strings.TrimSpace(cells.Eq(i).Text())
	}

	position := strings.ToUpper(text(1))
	name := cleanName(text(2))
	if name == "" || position == "" {
		return contracts.Projection{}, false
	}
	if mapped, ok := positionMap[position]; ok {
		position = mapped
	}

	teamIdx, projIdx := projectionColumn(sport)
	team := strings.ToUpper(text(teamIdx))
	if team == "EXP." || team == "EXP" {
		team = ""
	}

	points, err := strconv.ParseFloat(text(projIdx), 64)
	if err != nil || points <= 0 {
		return contracts.Projection{}, false
	}

	return contracts.Projection{
		Sport:      sport,
		PlayerName: name,
		Team:       team,
		Position:   position,
		Source:     SourceName,
		Points:     points,
	}, true
}

// cleanName strips the trailing injury status letter the site appends
func cleanName(name string) string {
	name = strings.TrimSpace(name)
	if len(name) > 1 {
		switch name[len(name)-1] {
		case 'Q', 'O', 'D', 'P':
			name = strings.TrimSpace(name[:len(name)-1])
		}
	}
	return name
}
