package poller

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"gatherly/internal/models"
)

// Mutator is the write side of the notification API.
type Mutator interface {
	MarkNotificationRead(ctx context.Context, token, id string) error
	DeleteNotification(ctx context.Context, token, id string) error
}

// Inbox holds the local mirror of the user's notification list. Mutations
// are optimistic: local state changes first, then the server is told. A
// remote failure is logged and the local change stands; the drift heals on
// the next Load.
type Inbox struct {
	fetch  Fetcher
	remote Mutator
	token  func() string
	log    zerolog.Logger

	mu     sync.Mutex
	items  []models.Notification
	unread int
}

func NewInbox(fetch Fetcher, remote Mutator, token func() string, log zerolog.Logger) *Inbox {
	return &Inbox{
		fetch:  fetch,
		remote: remote,
		token:  token,
		log:    log,
	}
}

// Load replaces the mirror with the server's current list. A fetch failure
// keeps whatever is already cached.
func (b *Inbox) Load(ctx context.Context, limit int) {
	token := b.token()
	if token == "" {
		return
	}

	items, err := b.fetch.Notifications(ctx, token, limit)
	if err != nil {
		b.log.Debug().Err(err).Msg("inbox load failed")
		return
	}

	unread := 0
	for _, n := range items {
		if !n.Read {
			unread++
		}
	}

	b.mu.Lock()
	b.items = items
	b.unread = unread
	b.mu.Unlock()
}

// Items returns a copy of the cached list, most recent first.
func (b *Inbox) Items() []models.Notification {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]models.Notification, len(b.items))
	copy(out, b.items)
	return out
}

func (b *Inbox) Unread() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.unread
}

// MarkRead flips the notification to read locally, then tells the server.
// Remote failure does not roll the local change back.
func (b *Inbox) MarkRead(ctx context.Context, id string) {
	b.mu.Lock()
	changed := false
	for i := range b.items {
		if b.items[i].ID == id && !b.items[i].Read {
			b.items[i].Read = true
			b.unread--
			changed = true
			break
		}
	}
	b.mu.Unlock()
	if !changed {
		return
	}

	if err := b.remote.MarkNotificationRead(ctx, b.token(), id); err != nil {
		b.log.Debug().Err(err).Str("notification_id", id).Msg("remote mark-read failed, keeping local state")
	}
}

// Delete drops the notification locally, then tells the server. Remote
// failure does not restore it.
func (b *Inbox) Delete(ctx context.Context, id string) {
	b.mu.Lock()
	found := false
	for i := range b.items {
		if b.items[i].ID == id {
			if !b.items[i].Read {
				b.unread--
			}
			b.items = append(b.items[:i], b.items[i+1:]...)
			found = true
			break
		}
	}
	b.mu.Unlock()
	if !found {
		return
	}

	if err := b.remote.DeleteNotification(ctx, b.token(), id); err != nil {
		b.log.Debug().Err(err).Str("notification_id", id).Msg("remote delete failed, keeping local state")
	}
}
