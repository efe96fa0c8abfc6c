package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cockroachdb/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	"github.com/garyjia/promoter-portal/internal/domain/event"
)

// ErrClosed is returned by Dispatch after Close
var ErrClosed = errors.New("dispatcher closed")

// Dispatcher delivers portal events (submissions, decisions, roster changes)
// to the handlers subscribed in-process. Delivery is synchronous: Dispatch
// returns once every handler ran.
type Dispatcher interface {
	Subscribe(eventType event.Type, handler Handler)
	SubscribeNamed(eventType event.Type, name string, handler Handler)
	Unsubscribe(eventType event.Type, name string)

	// Dispatch calls the handlers for evt.Type in subscription order.
	// Every handler runs even if an earlier one failed.
	Dispatch(ctx context.Context, evt *event.Event) error

	ListHandlers(eventType event.Type) []HandlerInfo
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu     sync.RWMutex
	subs   map[event.Type][]HandlerInfo
	seq    map[event.Type]int
	logger Logger
	closed atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		subs: make(map[event.Type][]HandlerInfo),
		seq:  make(map[event.Type]int),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.subscribe(eventType, "", handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.subscribe(eventType, name, handler)
}

func (d *eventDispatcher) subscribe(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	d.seq[eventType]++
	if name == "" {
		name = fmt.Sprintf("%s#%d", eventType, d.seq[eventType])
	}
	d.subs[eventType] = append(d.subs[eventType], HandlerInfo{Name: name, EventType: eventType, Handler: handler})
	d.mu.Unlock()

	d.logInfo("Event handler subscribed", "event_type", eventType, "handler_name", name)
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.subs[eventType] = lo.Reject(d.subs[eventType], func(h HandlerInfo, _ int) bool {
		return h.Name == name
	})
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}
	if evt == nil || !evt.Type.IsValid() {
		return errors.Newf("cannot dispatch unknown event %v", evt)
	}

	d.mu.RLock()
	subs := append([]HandlerInfo(nil), d.subs[evt.Type]...)
	d.mu.RUnlock()

	var errs error
	for _, sub := range subs {
		err := d.invoke(ctx, evt, sub)
		if err == nil {
			continue
		}
		d.logError("Event handler failed",
			"event_type", evt.Type,
			"event_id", evt.ID,
			"subject_id", evt.SubjectID,
			"handler_name", sub.Name,
			"error", err,
		)
		errs = multierr.Append(errs, errors.Wrapf(err, "%s", sub.Name))
	}
	return errs
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()

	return lo.Map(d.subs[eventType], func(h HandlerInfo, _ int) HandlerInfo {
		return HandlerInfo{Name: h.Name, EventType: h.EventType}
	})
}

func (d *eventDispatcher) Close() error {
	if !d.closed.CompareAndSwap(false, true) {
		return ErrClosed
	}
	d.logInfo("Event dispatcher closed")
	return nil
}

func (d *eventDispatcher) invoke(ctx context.Context, evt *event.Event, sub HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("panic in event handler: %v", r)
			d.logError("Event handler panicked", "event_type", evt.Type, "handler_name", sub.Name, "panic", r)
		}
	}()
	return sub.Handler(ctx, evt)
}

func (d *eventDispatcher) logInfo(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) logError(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
