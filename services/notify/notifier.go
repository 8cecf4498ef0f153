// Package notify delivers deal alerts to the configured sinks.
package notify

import (
	"context"
	"fmt"
	"time"

	"mhedlund/pricetracker/logger"
)

// Alert carries everything a sink needs to format a deal notification
type Alert struct {
	Item        string    `json:"item"`
	Title       string    `json:"title,omitempty"`
	Price       int64     `json:"price"`
	TargetPrice int64     `json:"target_price"`
	Link        string    `json:"link,omitempty"`
	ListingID   string    `json:"listing_id,omitempty"`
	ObservedAt  time.Time `json:"observed_at"`
}

// Message renders the human-readable notification body
func (a Alert) Message() string {
	msg := fmt.Sprintf("Current price: %d (target: %d)", a.Price, a.TargetPrice)
	if a.Title != "" {
		msg = a.Title + "\n" + msg
	}
	if a.Link != "" {
		msg += "\n" + a.Link
	}
	return msg
}

// Subject renders the notification title line
func (a Alert) Subject() string {
	return fmt.Sprintf("Price alert: %s at %d", a.Item, a.Price)
}

// Notifier represents a notification sink. Delivery failures are reported to
// the caller and never abort a scan.
type Notifier interface {
	// Notify delivers one alert
	Notify(ctx context.Context, alert Alert) error

	// Test performs a delivery dry run to verify the sink configuration
	Test(ctx context.Context) error

	// Close releases the sink's resources
	Close() error
}

// TestAlert is the canned alert sent by delivery dry runs
func TestAlert() Alert {
	return Alert{
		Item:        "pricetracker test",
		Title:       "This is a test notification from pricetracker",
		Price:       1,
		TargetPrice: 1,
		ObservedAt:  time.Now(),
	}
}

// LogNotifier writes alerts to the log only. Used when no sink is configured
// so a scan still reports its qualifying deals somewhere visible.
type LogNotifier struct {
	log *logger.Logger
}

// NewLogNotifier creates a log-only sink
func NewLogNotifier() *LogNotifier {
	return &LogNotifier{log: logger.ForComponent("notify")}
}

// Notify logs the alert
func (n *LogNotifier) Notify(ctx context.Context, alert Alert) error {
	n.log.Info().
		Str("item", alert.Item).
		Int64("price", alert.Price).
		Int64("target_price", alert.TargetPrice).
		Str("link", alert.Link).
		Msg("Deal alert")
	return nil
}

// Test logs the canned test alert
func (n *LogNotifier) Test(ctx context.Context) error {
	return n.Notify(ctx, TestAlert())
}

// Close is a no-op
func (n *LogNotifier) Close() error { return nil }
