package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"

	"golang.org/x/time/rate"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/httputil"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// Client handles communication with the Yahoo Daily Fantasy API
// ⭐ SSOT: Yahoo DFS API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	limiter    *rate.Limiter
	baseURL    string
	authURL    string
	username   string
	password   string

	mu      sync.Mutex
	session *contracts.Session
}

// NewClient creates a new Yahoo DFS client
func NewClient(httpClient *httputil.Client, log *logger.Logger, cfg *config.Config) *Client {
	window := cfg.Yahoo.RateWindow
	if window <= 0 {
		window = 1
	}
	return &Client{
		httpClient: httpClient,
		logger:     log,
		limiter:    rate.NewLimiter(rate.Limit(float64(cfg.Yahoo.RateLimit)/window.Seconds()), cfg.Yahoo.RateLimit),
		baseURL:    cfg.Yahoo.BaseURL,
		authURL:    cfg.Yahoo.AuthURL,
		username:   cfg.Yahoo.Username,
		password:   cfg.Yahoo.Password,
	}
}

// getJSON fetches a URL and decodes the JSON body into out.
// Network failures and 5xx responses surface as source-unavailable.
func (c *Client) getJSON(ctx context.Context, url string, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	resp, err := c.httpClient.Get(ctx, url)
	if err != nil {
		return contracts.SourceErr("yahoo", err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return contracts.SourceErr("yahoo", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return contracts.ValidationErr("yahoo", fmt.Sprintf("malformed response: %v", err))
	}
	return nil
}

// checkStatus maps HTTP status codes onto the failure taxonomy
func checkStatus(resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusOK:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("yahoo: status %d: %w", resp.StatusCode, contracts.ErrSessionExpired)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return fmt.Errorf("yahoo: status %d: %w", resp.StatusCode, contracts.ErrSourceUnavailable)
	default:
		return contracts.ValidationErr("yahoo", fmt.Sprintf("unexpected status %d", resp.StatusCode))
	}
}
