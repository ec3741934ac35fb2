/*

This file contains the Slack webhook notifier. Alerting is best effort: a
failed webhook delivery is logged and swallowed, never failing the
evaluation that produced the narrative.

*/

package summary

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/runfromrun/rfr/internal/logger"
)

var notifierLogger = logger.GetForComponent("threshold_notifier")

// Notifier posts evaluation narratives to a Slack incoming webhook. A nil
// Notifier (no webhook configured) is valid and does nothing.
type Notifier struct {
	client     *http.Client
	webhookURL string
}

func NewNotifier(webhookURL string) *Notifier {
	if webhookURL == "" {
		return nil
	}
	return &Notifier{
		client:     &http.Client{Timeout: 5 * time.Second},
		webhookURL: webhookURL,
	}
}

// Notify delivers the narrative, prefixed with the completion time.
func (n *Notifier) Notify(ctx context.Context, ticker, narrative string) {
	if n == nil {
		return
	}

	text := fmt.Sprintf("Complete Time: %s\nCoin: %s\n%s",
		time.Now().UTC().Format(time.RFC3339), ticker, narrative)

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		notifierLogger.Error().Err(err).Msg("Failed to marshal webhook payload")
		return
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		notifierLogger.Error().Err(err).Msg("Failed to build webhook request")
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		notifierLogger.Error().Err(err).Msg("Failed to deliver threshold alert webhook")
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		notifierLogger.Error().
			Int("statusCode", resp.StatusCode).
			Msg("Threshold alert webhook rejected")
		return
	}

	notifierLogger.Debug().Str("ticker", ticker).Msg("Threshold alert delivered")
}
