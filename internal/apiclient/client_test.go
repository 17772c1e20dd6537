package apiclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(srv.URL, 2*time.Second, zerolog.Nop())
}

func TestLogin(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.Write([]byte(`{"token":"tok-1","user":{"_id":"u1","username":"ada"}}`))
	}))

	result, err := client.Login(context.Background(), "ada@example.com", "secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-1", result.Token)
	assert.Equal(t, "u1", result.User.ID)
	assert.Equal(t, "ada", result.User.Username)
}

func TestProfileSendsBearerToken(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.Write([]byte(`{"user":{"_id":"u1","firstName":"Ada","lastName":"Lovelace"}}`))
	}))

	user, err := client.Profile(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", user.FirstName)
}

func TestRejectedTokenIsUnauthorized(t *testing.T) {
	for _, status := range []int{http.StatusUnauthorized, http.StatusForbidden} {
		client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(status)
		}))

		_, err := client.Profile(context.Background(), "bad")
		assert.ErrorIs(t, err, ErrUnauthorized)
	}
}

func TestServerErrorCarriesCode(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"error":"event_full"}`))
	}))

	_, err := client.UnreadCount(context.Background(), "tok-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "event_full")
}

func TestNotificationsLimit(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write([]byte(`{"notifications":[{"_id":"n1","title":"Approved","read":false}]}`))
	}))

	notifications, err := client.Notifications(context.Background(), "tok-1", 5)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "n1", notifications[0].ID)
	assert.False(t, notifications[0].Read)
}

func TestEventAttendeesMixedShapes(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/events/e1/attendees", r.URL.Path)
		w.Write([]byte(`{"attendees":["u1",{"_id":"u2","username":"ada"}]}`))
	}))

	attendees, err := client.EventAttendees(context.Background(), "tok-1", "e1")
	require.NoError(t, err)
	require.Len(t, attendees, 2)
	assert.Equal(t, "u1", attendees[0].ID)
	assert.Equal(t, "ada", attendees[1].Username)
}

func TestMarkNotificationRead(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/notifications/n1/read", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.MarkNotificationRead(context.Background(), "tok-1", "n1"))
}

func TestDeleteNotification(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/api/v1/notifications/n1", r.URL.Path)
		w.WriteHeader(http.StatusNoContent)
	}))

	require.NoError(t, client.DeleteNotification(context.Background(), "tok-1", "n1"))
}

func TestUnreadCount(t *testing.T) {
	client := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/notifications/unread-count", r.URL.Path)
		w.Write([]byte(`{"count":7}`))
	}))

	count, err := client.UnreadCount(context.Background(), "tok-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}
