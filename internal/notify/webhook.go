package notify

import (
	"context"
	"time"

	"github.com/wonny/dfs/backend/internal/contracts"
	"github.com/wonny/dfs/backend/pkg/config"
	"github.com/wonny/dfs/backend/pkg/httputil"
	"github.com/wonny/dfs/backend/pkg/logger"
)

// WebhookNotifier posts operator events to a webhook endpoint.
// Delivery is best-effort: failures are logged and never propagate to
// the job that raised the event.
// ⭐ SSOT: 운영자 알림 발송은 여기서만
type WebhookNotifier struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	url        string
	enabled    bool
}

// New creates a webhook notifier. A disabled notifier drops events.
func New(httpClient *httputil.Client, log *logger.Logger, cfg *config.Config) *WebhookNotifier {
	return &WebhookNotifier{
		httpClient: httpClient,
		logger:     log,
		url:        cfg.Notify.WebhookURL,
		enabled:    cfg.Notify.Enabled && cfg.Notify.WebhookURL != "",
	}
}

type webhookPayload struct {
	Kind    contracts.EventKind    `json:"kind"`
	Message string                 `json:"message"`
	Fields  map[string]interface{} `json:"fields,omitempty"`
	SentAt  time.Time              `json:"sent_at"`
}

// Notify delivers one event. Fire-and-forget.
func (n *WebhookNotifier) Notify(ctx context.Context, kind contracts.EventKind, message string, fields map[string]interface{}) {
	n.logger.WithFields(map[string]interface{}{
		"kind":    string(kind),
		"message": message,
	}).Info("Operator notification")

	if !n.enabled {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	payload := webhookPayload{
		Kind:    kind,
		Message: message,
		Fields:  fields,
		SentAt:  time.Now(),
	}

	resp, err := n.httpClient.PostJSON(ctx, n.url, payload)
	if err != nil {
		n.logger.WithError(err).Warn("Webhook delivery failed")
		return
	}
	resp.Body.Close()
}
