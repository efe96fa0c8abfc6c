package dispatcher

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/promoter-portal/internal/domain/event"
)

// mockLogger implements Logger for testing
type mockLogger struct {
	mu     sync.Mutex
	infos  []string
	errors []string
}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.infos = append(m.infos, msg)
}

func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errors = append(m.errors, msg)
}

func newEvent(t event.Type) *event.Event {
	return event.NewEvent(t, "req-1", "user-1", nil)
}

func TestDispatch_RunsHandlersInOrder(t *testing.T) {
	d := NewDispatcher()
	var order []string

	d.SubscribeNamed(event.TypeRequestApproved, "first", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "first")
		return nil
	})
	d.SubscribeNamed(event.TypeRequestApproved, "second", func(ctx context.Context, evt *event.Event) error {
		order = append(order, "second")
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), newEvent(event.TypeRequestApproved)))
	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDispatch_OnlyMatchingType(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Subscribe(event.TypeRequestRejected, func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	require.NoError(t, d.Dispatch(context.Background(), newEvent(event.TypeRequestApproved)))
	assert.False(t, called)
}

func TestDispatch_FailingHandlerDoesNotStopOthers(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	boom := errors.New("boom")
	secondCalled := false

	d.SubscribeNamed(event.TypeRequestSubmitted, "fails", func(ctx context.Context, evt *event.Event) error {
		return boom
	})
	d.SubscribeNamed(event.TypeRequestSubmitted, "works", func(ctx context.Context, evt *event.Event) error {
		secondCalled = true
		return nil
	})

	err := d.Dispatch(context.Background(), newEvent(event.TypeRequestSubmitted))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.True(t, secondCalled)
	assert.Contains(t, logger.errors, "Event handler failed")
}

func TestDispatch_RecoversPanic(t *testing.T) {
	logger := &mockLogger{}
	d := NewDispatcher(WithLogger(logger))
	d.Subscribe(event.TypeRequestSubmitted, func(ctx context.Context, evt *event.Event) error {
		panic("bad handler")
	})

	err := d.Dispatch(context.Background(), newEvent(event.TypeRequestSubmitted))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "panic in event handler")
	assert.Contains(t, logger.errors, "Event handler panicked")
}

func TestUnsubscribeAndList(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }
	d.SubscribeNamed(event.TypeRequestApproved, "a", noop)
	d.SubscribeNamed(event.TypeRequestApproved, "b", noop)

	d.Unsubscribe(event.TypeRequestApproved, "a")

	list := d.ListHandlers(event.TypeRequestApproved)
	require.Len(t, list, 1)
	assert.Equal(t, "b", list[0].Name)
	assert.Nil(t, list[0].Handler)
}

func TestClose(t *testing.T) {
	d := NewDispatcher()
	require.NoError(t, d.Close())
	assert.Error(t, d.Close())
	assert.Error(t, d.Dispatch(context.Background(), newEvent(event.TypeRequestApproved)))
}

func TestDispatch_RejectsUnknownType(t *testing.T) {
	d := NewDispatcher()
	called := false
	d.Subscribe(event.Type("invoice.created"), func(ctx context.Context, evt *event.Event) error {
		called = true
		return nil
	})

	assert.Error(t, d.Dispatch(context.Background(), newEvent(event.Type("invoice.created"))))
	assert.Error(t, d.Dispatch(context.Background(), nil))
	assert.False(t, called)
}

func TestSubscribe_GeneratedNames(t *testing.T) {
	d := NewDispatcher()
	noop := func(ctx context.Context, evt *event.Event) error { return nil }
	d.Subscribe(event.TypeRequestSubmitted, noop)
	d.Subscribe(event.TypeRequestSubmitted, noop)

	list := d.ListHandlers(event.TypeRequestSubmitted)
	require.Len(t, list, 2)
	assert.Equal(t, "request.submitted#1", list[0].Name)
	assert.Equal(t, "request.submitted#2", list[1].Name)
}
