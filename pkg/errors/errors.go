package errors

import (
	"errors"
	"fmt"
	"time"
)

// Kind classifies a scan failure
type Kind string

const (
	// KindFetch represents transport-level failures (timeout, reset, HTTP error)
	KindFetch Kind = "fetch"
	// KindExtraction represents a structural mismatch in the fetched page
	KindExtraction Kind = "extraction"
	// KindNoPrice represents a valid page with no visible price
	KindNoPrice Kind = "no_price"
	// KindUnparsablePrice represents price text the normalizer could not interpret
	KindUnparsablePrice Kind = "unparsable_price"
	// KindPersist represents a failed durable write of the history file
	KindPersist Kind = "persist"
	// KindDelivery represents an unreachable notification sink
	KindDelivery Kind = "delivery"
)

// ScanError is the typed error crossing component boundaries during a scan.
type ScanError struct {
	Kind Kind
	Item string
	Msg  string
	Err  error
	Time time.Time
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Kind, e.Item, e.Msg, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Kind, e.Item, e.Msg)
}

// Unwrap returns the underlying error
func (e *ScanError) Unwrap() error {
	return e.Err
}

// Retryable reports whether another attempt within the same scan can help.
// Only transport failures are worth retrying; a changed page layout or
// unparsable price text will not fix itself.
func (e *ScanError) Retryable() bool {
	return e.Kind == KindFetch
}

// Fatal reports whether the failure must fail the whole scan. Unflushed
// dedup state risks duplicate notifications on the next run, so only
// persist failures escalate.
func (e *ScanError) Fatal() bool {
	return e.Kind == KindPersist
}

// New creates a ScanError
func New(kind Kind, item, msg string, err error) *ScanError {
	return &ScanError{
		Kind: kind,
		Item: item,
		Msg:  msg,
		Err:  err,
		Time: time.Now(),
	}
}

// NewFetch creates a fetch failure carrying the last attempt's cause
func NewFetch(item, msg string, err error) *ScanError {
	return New(KindFetch, item, msg, err)
}

// NewExtraction creates a structural extraction failure
func NewExtraction(item, msg string, err error) *ScanError {
	return New(KindExtraction, item, msg, err)
}

// NewNoPrice creates the benign no-price-on-page outcome
func NewNoPrice(item string) *ScanError {
	return New(KindNoPrice, item, "no price found on page", nil)
}

// NewUnparsablePrice creates a normalizer failure for the given raw text
func NewUnparsablePrice(item, raw string) *ScanError {
	return New(KindUnparsablePrice, item, fmt.Sprintf("unparsable price text %q", raw), nil)
}

// NewPersist creates a scan-fatal durable write failure
func NewPersist(msg string, err error) *ScanError {
	return New(KindPersist, "", msg, err)
}

// NewDelivery creates a notification delivery failure
func NewDelivery(item, msg string, err error) *ScanError {
	return New(KindDelivery, item, msg, err)
}

// IsKind reports whether err is a ScanError of the given kind
func IsKind(err error, kind Kind) bool {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, or an empty Kind for untyped errors
func KindOf(err error) Kind {
	var se *ScanError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}
