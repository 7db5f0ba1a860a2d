package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingPublisher struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(subject string, data []byte) error {
	if p.err != nil {
		return p.err
	}
	p.subjects = append(p.subjects, subject)
	p.payloads = append(p.payloads, data)
	return nil
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(zap.NewNop())
	calls := 0
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		calls++
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		t.Fatal("unexpected handler")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, 2, calls)
}

func TestWildcardHandlersRunAfterTypedOnes(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	var order []string
	d.SubscribeAll(func(_ context.Context, e Event) error {
		order = append(order, "all:"+string(e.Type))
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(context.Context, Event) error {
		order = append(order, "deleted")
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketDeleted}))
	require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	assert.Equal(t, []string{"deleted", "all:ticket_deleted", "all:ticket_created"}, order)
}

func TestPanickingHandlerDoesNotReachPublisher(t *testing.T) {
	d := NewInMemoryDispatcher(nil)
	reached := false
	d.Subscribe(EventTicketCreated, func(context.Context, Event) error {
		panic("subscriber bug")
	})
	d.SubscribeAll(func(context.Context, Event) error {
		reached = true
		return nil
	})

	assert.NotPanics(t, func() {
		require.NoError(t, d.Publish(context.Background(), Event{Type: EventTicketCreated}))
	})
	assert.True(t, reached)
}

func TestNATSForwarderPublishesOnPrefixedSubject(t *testing.T) {
	pub := &recordingPublisher{}
	d := NewInMemoryDispatcher(nil)
	f := NewNATSForwarder(pub, "desk", zap.NewNop())
	f.Register(d)

	require.NoError(t, d.Publish(context.Background(), Event{ID: "e1", Type: EventTicketAssigned, TicketID: "t1"}))
	require.Len(t, pub.subjects, 1)
	assert.Equal(t, "desk.ticket_assigned", pub.subjects[0])

	var decoded Event
	require.NoError(t, json.Unmarshal(pub.payloads[0], &decoded))
	assert.Equal(t, "t1", decoded.TicketID)
}

func TestNATSForwarderDefaultPrefix(t *testing.T) {
	f := NewNATSForwarder(&recordingPublisher{}, "", zap.NewNop())
	assert.Equal(t, "helpdesk.ticket_created", f.Subject(EventTicketCreated))
}

func TestNATSForwarderWithoutLogger(t *testing.T) {
	pub := &recordingPublisher{}
	f := NewNATSForwarder(pub, "", nil)

	assert.NotPanics(t, func() {
		require.NoError(t, f.forward(context.Background(), Event{Type: EventTicketCreated, TicketID: "t1"}))
	})
	assert.Equal(t, []string{"helpdesk.ticket_created"}, pub.subjects)
}
