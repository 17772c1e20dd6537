package poller

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/models"
)

type fakeMutator struct {
	markCalls   []string
	deleteCalls []string
	err         error
}

func (m *fakeMutator) MarkNotificationRead(_ context.Context, _, id string) error {
	m.markCalls = append(m.markCalls, id)
	return m.err
}

func (m *fakeMutator) DeleteNotification(_ context.Context, _, id string) error {
	m.deleteCalls = append(m.deleteCalls, id)
	return m.err
}

func loadedInbox(t *testing.T, remote *fakeMutator) *Inbox {
	t.Helper()
	fetch := &fakeFetcher{batch: []models.Notification{
		{ID: "n1", Title: "One"},
		{ID: "n2", Title: "Two", Read: true},
		{ID: "n3", Title: "Three"},
	}}
	inbox := NewInbox(fetch, remote, withToken(), zerolog.Nop())
	inbox.Load(context.Background(), 20)
	return inbox
}

func TestInboxLoad(t *testing.T) {
	inbox := loadedInbox(t, &fakeMutator{})

	require.Len(t, inbox.Items(), 3)
	assert.Equal(t, 2, inbox.Unread())
}

func TestInboxLoadFailureKeepsCache(t *testing.T) {
	fetch := &fakeFetcher{batch: unreadBatch(2)}
	inbox := NewInbox(fetch, &fakeMutator{}, withToken(), zerolog.Nop())
	inbox.Load(context.Background(), 20)
	require.Len(t, inbox.Items(), 2)

	fetch.batchErr = errors.New("api down")
	inbox.Load(context.Background(), 20)
	assert.Len(t, inbox.Items(), 2)
}

func TestInboxMarkRead(t *testing.T) {
	remote := &fakeMutator{}
	inbox := loadedInbox(t, remote)

	inbox.MarkRead(context.Background(), "n1")

	assert.True(t, inbox.Items()[0].Read)
	assert.Equal(t, 1, inbox.Unread())
	assert.Equal(t, []string{"n1"}, remote.markCalls)

	// Already read: no second remote call.
	inbox.MarkRead(context.Background(), "n1")
	assert.Equal(t, []string{"n1"}, remote.markCalls)
}

func TestInboxMarkReadRemoteFailureKeepsLocal(t *testing.T) {
	remote := &fakeMutator{err: errors.New("api down")}
	inbox := loadedInbox(t, remote)

	inbox.MarkRead(context.Background(), "n3")

	items := inbox.Items()
	assert.True(t, items[2].Read)
	assert.Equal(t, 1, inbox.Unread())
}

func TestInboxDelete(t *testing.T) {
	remote := &fakeMutator{}
	inbox := loadedInbox(t, remote)

	inbox.Delete(context.Background(), "n1")

	items := inbox.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "n2", items[0].ID)
	assert.Equal(t, 1, inbox.Unread())
	assert.Equal(t, []string{"n1"}, remote.deleteCalls)
}

func TestInboxDeleteRemoteFailureKeepsLocal(t *testing.T) {
	remote := &fakeMutator{err: errors.New("api down")}
	inbox := loadedInbox(t, remote)

	inbox.Delete(context.Background(), "n2")

	assert.Len(t, inbox.Items(), 2)
	assert.Equal(t, 2, inbox.Unread())

	// Unknown id: nothing removed, no remote call recorded beyond the first.
	inbox.Delete(context.Background(), "missing")
	assert.Equal(t, []string{"n2"}, remote.deleteCalls)
}
