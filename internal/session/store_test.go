package session

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/ledger"
)

func TestFileStoreRoundTrip(t *testing.T) {
	s := NewFileStore(ledger.New(t.TempDir(), zerolog.Nop()))

	loginAt := time.Now().Add(-time.Hour).Truncate(time.Millisecond)
	s.Save(Record{Token: "tok", User: testUser(), LoginAt: loginAt, Remember: true})

	rec, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, "tok", rec.Token)
	assert.Equal(t, "ada", rec.User.Username)
	assert.True(t, rec.LoginAt.Equal(loginAt))
	assert.True(t, rec.Remember)
}

func TestFileStoreMissingTokenInvalidatesRecord(t *testing.T) {
	l := ledger.New(t.TempDir(), zerolog.Nop())
	s := NewFileStore(l)

	// User data without a token is not a session.
	l.Write("user_data", testUser())

	_, ok := s.Load()
	assert.False(t, ok)
}

func TestCookieStoreRoundTrip(t *testing.T) {
	s := NewCookieStore(ledger.New(t.TempDir(), zerolog.Nop()), DefaultMaxAge)

	s.Save(Record{Token: "tok", User: testUser()})

	rec, ok := s.Load()
	require.True(t, ok)
	assert.Equal(t, "tok", rec.Token)
	assert.Equal(t, "ada@example.com", rec.User.Email)
	assert.Equal(t, "tok", s.Token())
}

func TestCookieStoreExpiredCookiesReadAsAbsent(t *testing.T) {
	s := NewCookieStore(ledger.New(t.TempDir(), zerolog.Nop()), DefaultMaxAge)
	s.Save(Record{Token: "tok", User: testUser()})

	s.now = func() time.Time { return time.Now().Add(31 * 24 * time.Hour) }

	_, ok := s.Load()
	assert.False(t, ok)
	assert.Empty(t, s.Token())
}

func TestCookieStoreClear(t *testing.T) {
	s := NewCookieStore(ledger.New(t.TempDir(), zerolog.Nop()), DefaultMaxAge)
	s.Save(Record{Token: "tok", User: testUser()})

	s.Clear()

	_, ok := s.Load()
	assert.False(t, ok)
}
