package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/kagehq/failover/config"
)

const deliveryTimeout = 10 * time.Second

// Notifier posts incident reports to a webhook. A notifier constructed
// without a URL is inert.
type Notifier struct {
	webhookURL string
	format     string
	client     *http.Client
	logger     *slog.Logger
}

// New creates a webhook notifier. The client timeout bounds how far a
// slow webhook can stretch a health check tick.
func New(webhookURL, format string, logger *slog.Logger) *Notifier {
	return &Notifier{
		webhookURL: webhookURL,
		format:     format,
		client: &http.Client{
			Timeout: deliveryTimeout,
		},
		logger: logger,
	}
}

// Enabled reports whether a webhook URL is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// Send delivers the report. Non-2xx responses and transport errors are
// logged as warnings and otherwise ignored; no retry is attempted.
func (n *Notifier) Send(ctx context.Context, report Report) {
	if !n.Enabled() {
		return
	}

	var payload any
	if n.format == config.WebhookFormatDiscord {
		payload = discordMessage(report)
	} else {
		payload = slackMessage(report)
	}

	body, err := json.Marshal(payload)
	if err != nil {
		n.logger.Warn("Failed to encode incident notification",
			slog.String("event", string(report.Event)),
			slog.Any("err", err))
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		n.logger.Warn("Failed to build incident notification request",
			slog.String("event", string(report.Event)),
			slog.Any("err", err))
		return
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := n.client.Do(req)
	if err != nil {
		n.logger.Warn("Error sending incident notification",
			slog.String("event", string(report.Event)),
			slog.Any("err", err))
		return
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		n.logger.Warn("Failed to send incident notification",
			slog.String("event", string(report.Event)),
			slog.Int("status", res.StatusCode))
		return
	}

	n.logger.Info("Incident notification sent",
		slog.String("event", string(report.Event)))
}
