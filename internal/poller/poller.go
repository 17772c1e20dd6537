// Package poller keeps the unread-notification counter current and surfaces
// newly arrived notifications as transient alerts. It polls; the server
// pushes nothing.
package poller

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/models"
)

const (
	DefaultInterval = 30 * time.Second

	// batchLimit caps the notification fetch that follows a count increase.
	batchLimit = 5
	// maxIndividualAlerts is how many new notifications get their own alert
	// before the remainder collapses into an aggregate one.
	maxIndividualAlerts = 3
)

// Fetcher is the slice of the API the poller needs.
type Fetcher interface {
	UnreadCount(ctx context.Context, token string) (int, error)
	Notifications(ctx context.Context, token string, limit int) ([]models.Notification, error)
}

// Alerter renders transient alerts. The agent logs them; tests capture them.
type Alerter interface {
	Notify(n models.Notification)
	NotifyMore(count int)
}

type Poller struct {
	fetch    Fetcher
	alert    Alerter
	interval time.Duration
	log      zerolog.Logger

	// token reports the current auth token, or "" when no session exists.
	// It reads the cookie layer directly rather than the session manager,
	// so the poller has no startup dependency on the manager.
	token func() string

	mu       sync.Mutex
	lastSeen int
	observed bool
}

func New(fetch Fetcher, alert Alerter, token func() string, interval time.Duration, log zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Poller{
		fetch:    fetch,
		alert:    alert,
		token:    token,
		interval: interval,
		log:      log,
	}
}

// Run polls until ctx is cancelled. Polling is suspended entirely while no
// token is present; fetch failures are logged and the counter holds its last
// value until the next tick.
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RefreshOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.RefreshOnce(ctx)
		}
	}
}

// RefreshOnce performs a single poll: fetch the unread count and, when it
// rose since the last observation, alert on the newly arrived notifications.
// The first observation only sets the baseline.
func (p *Poller) RefreshOnce(ctx context.Context) {
	token := p.token()
	if token == "" {
		return
	}

	count, err := p.fetch.UnreadCount(ctx, token)
	if err != nil {
		p.log.Debug().Err(err).Msg("unread count fetch failed")
		return
	}

	p.mu.Lock()
	previous, observed := p.lastSeen, p.observed
	p.lastSeen, p.observed = count, true
	p.mu.Unlock()

	if !observed || count <= previous {
		return
	}

	p.announce(ctx, token, count-previous)
}

func (p *Poller) announce(ctx context.Context, token string, arrived int) {
	batch, err := p.fetch.Notifications(ctx, token, batchLimit)
	if err != nil {
		p.log.Debug().Err(err).Msg("notification batch fetch failed")
		return
	}

	fresh := make([]models.Notification, 0, len(batch))
	for _, n := range batch {
		if !n.Read {
			fresh = append(fresh, n)
		}
	}
	if len(fresh) > arrived {
		fresh = fresh[:arrived]
	}

	shown := len(fresh)
	if shown > maxIndividualAlerts {
		shown = maxIndividualAlerts
	}
	for _, n := range fresh[:shown] {
		p.alert.Notify(n)
	}
	if rest := len(fresh) - shown; rest > 0 {
		p.alert.NotifyMore(rest)
	}
}

// LastSeen returns the most recently observed unread count.
func (p *Poller) LastSeen() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastSeen
}
