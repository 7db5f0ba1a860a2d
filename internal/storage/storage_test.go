package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectKeyLayout(t *testing.T) {
	assert.Equal(t, "tickets/t1/a1", ObjectKey("t1", "a1"))
	assert.Equal(t, "tickets/t1/", TicketPrefix("t1"))
}

func TestMemoryStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	payload := []byte("hello")
	require.NoError(t, store.Put(ctx, Blob{TicketID: "t1", AttachmentID: "a1", ContentType: "text/plain", Data: payload}))
	require.NoError(t, store.Put(ctx, Blob{TicketID: "t1", AttachmentID: "a2", Data: []byte("x")}))
	require.NoError(t, store.Put(ctx, Blob{TicketID: "t2", AttachmentID: "a3", Data: []byte("y")}))
	payload[0] = 'j'

	got, err := store.Get(ctx, "t1", "a1")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got.Data))
	assert.Equal(t, "text/plain", got.ContentType)

	ids, err := store.ListByTicket(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a1", "a2"}, ids)

	require.NoError(t, store.Delete(ctx, "t1", "a1"))
	require.NoError(t, store.Delete(ctx, "t1", "a1"))
	_, err = store.Get(ctx, "t1", "a1")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 2, store.Len())
}
