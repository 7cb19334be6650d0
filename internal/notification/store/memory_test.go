package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sankalp/internal/notification/models"
	id "sankalp/pkg/domain"
)

func TestMarkReadTouchesOnlyListedRows(t *testing.T) {
	ctx := context.Background()
	st := NewInMemory()
	deliver := func(recipient id.ActorID) id.NotificationID {
		n := &models.Notification{Recipient: recipient, Message: "hello"}
		require.NoError(t, st.Create(ctx, n))
		return n.ID
	}
	first := deliver(1)
	second := deliver(1)
	other := deliver(2)

	marked, err := st.MarkRead(ctx, 1, []id.NotificationID{second, other})
	require.NoError(t, err)
	assert.Equal(t, 1, marked)

	unread, err := st.CountUnread(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	rows, err := st.ListForRecipient(ctx, 1, 0)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, first, rows[1].ID)
	assert.False(t, rows[1].IsRead)

	unread, err = st.CountUnread(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 1, unread)

	marked, err = st.MarkRead(ctx, 1, []id.NotificationID{second})
	require.NoError(t, err)
	assert.Zero(t, marked, "already read")
}
