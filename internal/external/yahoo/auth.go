package yahoo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
)

type authResponse struct {
	UserID    string `json:"userId"`
	Crumb     string `json:"crumb"`
	ExpiresIn int64  `json:"expiresIn"` // seconds
}

// Authenticate establishes a session with the stored credentials.
// Rejected credentials surface as an authentication failure, which the
// orchestrator never retries.
func (c *Client) Authenticate(ctx context.Context) (*contracts.Session, error) {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	resp, err := c.httpClient.PostForm(ctx, c.authURL, form)
	if err != nil {
		return nil, contracts.SourceErr("yahoo", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("yahoo: credentials rejected: %w", contracts.ErrAuthentication)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("yahoo: auth status %d: %w", resp.StatusCode, contracts.ErrSourceUnavailable)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, contracts.SourceErr("yahoo", err)
	}

	var auth authResponse
	if err := json.Unmarshal(body, &auth); err != nil {
		return nil, contracts.ValidationErr("yahoo", fmt.Sprintf("malformed auth response: %v", err))
	}
	if auth.Crumb == "" {
		return nil, contracts.ValidationErr("yahoo", "auth response missing crumb")
	}

	session := &contracts.Session{
		UserID:    auth.UserID,
		CrumbCSRF: auth.Crumb,
		ExpiresAt: time.Now().Add(time.Duration(auth.ExpiresIn) * time.Second),
	}

	c.mu.Lock()
	c.session = session
	c.mu.Unlock()

	c.logger.WithField("user", auth.UserID).Info("Yahoo session established")
	return session, nil
}

// ensureSession returns a live session, authenticating when none exists
// or the current one has expired
func (c *Client) ensureSession(ctx context.Context) (*contracts.Session, error) {
	c.mu.Lock()
	s := c.session
	c.mu.Unlock()

	if s != nil && time.Now().Before(s.ExpiresAt) {
		return s, nil
	}
	return c.Authenticate(ctx)
}

// dropSession forgets the current session so the next call re-authenticates
func (c *Client) dropSession() {
	c.mu.Lock()
	c.session = nil
	c.mu.Unlock()
}
