package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mhedlund/pricetracker/pkg/errors"
)

const pushbulletPushURL = "https://api.pushbullet.com/v2/pushes"

// PushNotifier delivers alerts as Pushbullet pushes. Alerts with a link are
// sent as link pushes so the deal opens directly on the device.
type PushNotifier struct {
	token   string
	baseURL string
	http    *http.Client
}

// NewPushNotifier creates a Pushbullet sink using the given access token
func NewPushNotifier(token string) *PushNotifier {
	return &PushNotifier{
		token:   token,
		baseURL: pushbulletPushURL,
		http:    &http.Client{Timeout: 15 * time.Second},
	}
}

type pushPayload struct {
	Type  string `json:"type"`
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
}

// Notify sends one push
func (n *PushNotifier) Notify(ctx context.Context, alert Alert) error {
	payload := pushPayload{
		Type:  "note",
		Title: alert.Subject(),
		Body:  alert.Message(),
	}
	if alert.Link != "" {
		payload.Type = "link"
		payload.URL = alert.Link
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return errors.NewDelivery(alert.Item, "failed to encode push", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.baseURL, bytes.NewReader(body))
	if err != nil {
		return errors.NewDelivery(alert.Item, "failed to create push request", err)
	}
	req.Header.Set("Access-Token", n.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.http.Do(req)
	if err != nil {
		return errors.NewDelivery(alert.Item, "push delivery failed", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		return errors.NewDelivery(alert.Item, fmt.Sprintf("pushbullet returned status %d", resp.StatusCode), nil)
	}
	return nil
}

// Test sends the canned test alert
func (n *PushNotifier) Test(ctx context.Context) error {
	return n.Notify(ctx, TestAlert())
}

// Close is a no-op; the HTTP client holds no persistent connection state
// worth tearing down explicitly
func (n *PushNotifier) Close() error { return nil }
