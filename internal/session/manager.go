// Package session owns the client-side authenticated-session lifecycle:
// restore on startup, periodic re-validation against the server, and the
// fan-out of every state change to the durable store and the cookie
// fallback.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"gatherly/internal/apiclient"
	"gatherly/internal/models"
)

type State string

const (
	StateLoading       State = "loading"
	StateAnonymous     State = "anonymous"
	StateAuthenticated State = "authenticated"
)

const (
	DefaultMaxAge         = 30 * 24 * time.Hour
	DefaultVerifyInterval = 5 * time.Minute
)

// Verifier is the slice of the API the manager needs. The server is the
// source of truth for token validity.
type Verifier interface {
	Profile(ctx context.Context, token string) (models.User, error)
	Logout(ctx context.Context, token string) error
}

type Config struct {
	Durable  Store
	Cookies  Store
	Verifier Verifier

	// MaxAge is the session age past which a restored session is discarded
	// without contacting the server. Defaults to 30 days.
	MaxAge time.Duration
	// VerifyInterval is the cadence of silent re-validation while
	// authenticated. Defaults to 5 minutes.
	VerifyInterval time.Duration

	// OnLogout runs after any transition to Anonymous that was not
	// requested by the caller (expiry, rejected token). The agent uses it
	// to return the user to the login prompt.
	OnLogout func()

	Logger zerolog.Logger
}

type Manager struct {
	durable  Store
	cookies  Store
	verify   Verifier
	maxAge   time.Duration
	interval time.Duration
	onLogout func()
	log      zerolog.Logger
	now      func() time.Time

	mu     sync.RWMutex
	state  State
	record Record
}

func NewManager(cfg Config) *Manager {
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	if cfg.VerifyInterval <= 0 {
		cfg.VerifyInterval = DefaultVerifyInterval
	}
	return &Manager{
		durable:  cfg.Durable,
		cookies:  cfg.Cookies,
		verify:   cfg.Verifier,
		maxAge:   cfg.MaxAge,
		interval: cfg.VerifyInterval,
		onLogout: cfg.OnLogout,
		log:      cfg.Logger,
		now:      time.Now,
		state:    StateLoading,
	}
}

// Restore rebuilds the session from local state: durable store first, cookie
// fallback second. A found token is verified against the server before the
// manager reports Authenticated; any failure degrades to Anonymous with all
// persisted session data cleared. Restore is the only phase during which
// observers see StateLoading.
func (m *Manager) Restore(ctx context.Context) State {
	rec, ok := m.durable.Load()
	if !ok {
		rec, ok = m.cookies.Load()
	}
	if !ok || rec.Token == "" {
		// Covers the stray case of cached user data without a token:
		// that is not a session, so no verification attempt is made.
		m.clearAll()
		m.setState(StateAnonymous, Record{})
		return StateAnonymous
	}

	// A record restored from the cookie fallback has no login timestamp;
	// the cookie max age already bounds its lifetime.
	if !rec.LoginAt.IsZero() && m.now().Sub(rec.LoginAt) >= m.maxAge {
		m.log.Info().Msg("stored session expired, clearing")
		m.clearAll()
		m.setState(StateAnonymous, Record{})
		return StateAnonymous
	}

	user, err := m.verify.Profile(ctx, rec.Token)
	if err != nil {
		m.log.Warn().Err(err).Msg("session verification failed during restore")
		m.clearAll()
		m.setState(StateAnonymous, Record{})
		return StateAnonymous
	}

	rec.User = user
	if rec.LoginAt.IsZero() {
		rec.LoginAt = m.now()
	}
	m.persist(rec)
	m.setState(StateAuthenticated, rec)
	return StateAuthenticated
}

// Run re-validates the session every VerifyInterval until ctx is cancelled.
// A failed validation performs a full logout. Validation holds no lock while
// the request is in flight; overlapping validations are harmless because the
// call is idempotent and the last result wins.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.revalidate(ctx)
		}
	}
}

func (m *Manager) revalidate(ctx context.Context) {
	state, _ := m.Snapshot()
	if state != StateAuthenticated {
		return
	}

	if _, err := m.verify.Profile(ctx, m.Token()); err != nil {
		m.log.Warn().Err(err).Msg("session re-validation failed, logging out")
		m.forceLogout()
	}
}

// Login records a fresh session issued by the server and fans it out to both
// persistence layers.
func (m *Manager) Login(token string, user models.User, remember bool) {
	rec := Record{
		Token:    token,
		User:     user,
		LoginAt:  m.now(),
		Remember: remember,
	}
	m.persist(rec)
	m.setState(StateAuthenticated, rec)
}

// Logout clears both persistence layers and notifies the server on a
// fire-and-forget basis.
func (m *Manager) Logout(ctx context.Context) {
	token := m.Token()
	m.clearAll()
	m.setState(StateAnonymous, Record{})

	if token == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := m.verify.Logout(ctx, token); err != nil {
			m.log.Debug().Err(err).Msg("server logout call failed")
		}
	}()
}

// Refresh re-fetches the profile and overwrites the cached user record. An
// authorization failure forces a full logout; any other failure leaves the
// cached record untouched.
func (m *Manager) Refresh(ctx context.Context) error {
	state, _ := m.Snapshot()
	if state != StateAuthenticated {
		return nil
	}

	user, err := m.verify.Profile(ctx, m.Token())
	if err != nil {
		if errors.Is(err, apiclient.ErrUnauthorized) {
			m.log.Warn().Msg("profile refresh rejected, logging out")
			m.forceLogout()
		}
		return err
	}

	m.mu.Lock()
	if m.state == StateAuthenticated {
		m.record.User = user
		rec := m.record
		m.mu.Unlock()
		m.persist(rec)
		return nil
	}
	m.mu.Unlock()
	return nil
}

// UserPatch carries the fields UpdateUser may overwrite; nil means "leave
// unchanged".
type UserPatch struct {
	Username  *string
	Email     *string
	FirstName *string
	LastName  *string
	Phone     *string
	AvatarURL *string
}

// UpdateUser shallow-merges patch into the cached user record and persists
// the result without contacting the server.
func (m *Manager) UpdateUser(patch UserPatch) {
	m.mu.Lock()
	if m.state != StateAuthenticated {
		m.mu.Unlock()
		return
	}
	user := &m.record.User
	if patch.Username != nil {
		user.Username = *patch.Username
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.Phone != nil {
		user.Phone = patch.Phone
	}
	if patch.AvatarURL != nil {
		user.AvatarURL = patch.AvatarURL
	}
	rec := m.record
	m.mu.Unlock()

	m.persist(rec)
}

// Snapshot returns the externally observable state: exactly one of loading,
// anonymous, or authenticated with the current user record.
func (m *Manager) Snapshot() (State, models.User) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state, m.record.User
}

func (m *Manager) Token() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.record.Token
}

func (m *Manager) forceLogout() {
	m.clearAll()
	m.setState(StateAnonymous, Record{})
	if m.onLogout != nil {
		m.onLogout()
	}
}

func (m *Manager) persist(rec Record) {
	m.durable.Save(rec)
	m.cookies.Save(rec)
}

func (m *Manager) clearAll() {
	m.durable.Clear()
	m.cookies.Clear()
}

func (m *Manager) setState(state State, rec Record) {
	m.mu.Lock()
	m.state = state
	m.record = rec
	m.mu.Unlock()
}
