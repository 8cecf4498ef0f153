package notify

import (
	"context"
	stderrors "errors"
)

// Multi fans one alert out to several sinks. Every sink is attempted even
// when an earlier one fails; the combined error is returned.
type Multi struct {
	sinks []Notifier
}

// NewMulti creates a fan-out notifier
func NewMulti(sinks ...Notifier) *Multi {
	return &Multi{sinks: sinks}
}

// Notify delivers the alert to all sinks
func (m *Multi) Notify(ctx context.Context, alert Alert) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Notify(ctx, alert); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Test dry-runs all sinks
func (m *Multi) Test(ctx context.Context) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Test(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}

// Close closes all sinks
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return stderrors.Join(errs...)
}
