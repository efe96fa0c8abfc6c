// Package service implements the portal's use cases on top of the ports.
// Every operation takes the caller's session explicitly.
package service

import (
	"context"
	"time"

	"github.com/garyjia/promoter-portal/internal/application/dispatcher"
	"github.com/garyjia/promoter-portal/internal/domain/event"
)

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// publish dispatches evt when a dispatcher is configured. Handler failures are
// logged and never undo the operation that raised the event.
func publish(ctx context.Context, d dispatcher.Dispatcher, logger Logger, evt *event.Event) {
	if d == nil {
		return
	}
	if err := d.Dispatch(ctx, evt); err != nil {
		logger.Error("Event dispatch failed", "event_type", evt.Type, "subject_id", evt.SubjectID, "error", err)
	}
}

// startOfDay truncates t to midnight in loc
func startOfDay(t time.Time, loc *time.Location) time.Time {
	t = t.In(loc)
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, loc)
}
