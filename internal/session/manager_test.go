package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gatherly/internal/apiclient"
	"gatherly/internal/ledger"
	"gatherly/internal/models"
)

type fakeVerifier struct {
	profileFn    func(token string) (models.User, error)
	profileCalls int
	logoutCalls  chan string
}

func (f *fakeVerifier) Profile(_ context.Context, token string) (models.User, error) {
	f.profileCalls++
	if f.profileFn == nil {
		return models.User{}, errors.New("no profile fn")
	}
	return f.profileFn(token)
}

func (f *fakeVerifier) Logout(_ context.Context, token string) error {
	if f.logoutCalls != nil {
		f.logoutCalls <- token
	}
	return nil
}

type fixture struct {
	manager  *Manager
	durable  *FileStore
	cookies  *CookieStore
	verifier *fakeVerifier
	logouts  int
}

func newFixture(t *testing.T, verifier *fakeVerifier) *fixture {
	t.Helper()
	f := &fixture{
		durable:  NewFileStore(ledger.New(t.TempDir(), zerolog.Nop())),
		cookies:  NewCookieStore(ledger.New(t.TempDir(), zerolog.Nop()), DefaultMaxAge),
		verifier: verifier,
	}
	f.manager = NewManager(Config{
		Durable:  f.durable,
		Cookies:  f.cookies,
		Verifier: verifier,
		OnLogout: func() { f.logouts++ },
		Logger:   zerolog.Nop(),
	})
	return f
}

func testUser() models.User {
	return models.User{
		ID:        "u1",
		Username:  "ada",
		Email:     "ada@example.com",
		FirstName: "Ada",
		LastName:  "Lovelace",
		Role:      models.UserRoleUser,
	}
}

func TestRestoreNoToken(t *testing.T) {
	v := &fakeVerifier{}
	f := newFixture(t, v)

	state := f.manager.Restore(context.Background())

	assert.Equal(t, StateAnonymous, state)
	assert.Zero(t, v.profileCalls)
}

func TestRestoreExpiredSessionClearsEverything(t *testing.T) {
	v := &fakeVerifier{}
	f := newFixture(t, v)

	f.durable.Save(Record{
		Token:   "tok",
		User:    testUser(),
		LoginAt: time.Now().Add(-31 * 24 * time.Hour),
	})
	f.cookies.Save(Record{Token: "tok", User: testUser()})

	state := f.manager.Restore(context.Background())

	assert.Equal(t, StateAnonymous, state)
	assert.Zero(t, v.profileCalls, "expired sessions must not hit the server")

	_, ok := f.durable.Load()
	assert.False(t, ok)
	_, ok = f.cookies.Load()
	assert.False(t, ok)
}

func TestRestoreFreshSessionVerifies(t *testing.T) {
	verified := testUser()
	verified.FirstName = "Verified"
	v := &fakeVerifier{profileFn: func(token string) (models.User, error) {
		if token != "tok" {
			return models.User{}, apiclient.ErrUnauthorized
		}
		return verified, nil
	}}
	f := newFixture(t, v)

	f.durable.Save(Record{
		Token:   "tok",
		User:    testUser(),
		LoginAt: time.Now().Add(-24 * time.Hour),
	})

	state := f.manager.Restore(context.Background())

	require.Equal(t, StateAuthenticated, state)
	gotState, gotUser := f.manager.Snapshot()
	assert.Equal(t, StateAuthenticated, gotState)
	assert.Equal(t, "Verified", gotUser.FirstName)

	// Both layers hold the verified record after restore.
	durableRec, ok := f.durable.Load()
	require.True(t, ok)
	cookieRec, ok := f.cookies.Load()
	require.True(t, ok)
	assert.Equal(t, durableRec.Token, cookieRec.Token)
	assert.Equal(t, durableRec.User.FirstName, cookieRec.User.FirstName)
}

func TestRestoreVerificationFailure(t *testing.T) {
	v := &fakeVerifier{profileFn: func(string) (models.User, error) {
		return models.User{}, apiclient.ErrUnauthorized
	}}
	f := newFixture(t, v)

	f.durable.Save(Record{Token: "tok", User: testUser(), LoginAt: time.Now()})

	state := f.manager.Restore(context.Background())

	assert.Equal(t, StateAnonymous, state)
	_, ok := f.durable.Load()
	assert.False(t, ok)
}

func TestRestoreFromCookieFallback(t *testing.T) {
	v := &fakeVerifier{profileFn: func(string) (models.User, error) {
		return testUser(), nil
	}}
	f := newFixture(t, v)

	// Durable store empty, cookie layer still has a session.
	f.cookies.Save(Record{Token: "tok", User: testUser()})

	state := f.manager.Restore(context.Background())

	require.Equal(t, StateAuthenticated, state)
	rec, ok := f.durable.Load()
	require.True(t, ok, "restore must resynchronize the durable store")
	assert.Equal(t, "tok", rec.Token)
	assert.False(t, rec.LoginAt.IsZero())
}

func TestLoginPersistsToBothLayers(t *testing.T) {
	f := newFixture(t, &fakeVerifier{})

	f.manager.Login("tok", testUser(), true)

	state, user := f.manager.Snapshot()
	assert.Equal(t, StateAuthenticated, state)
	assert.Equal(t, "u1", user.ID)

	durableRec, ok := f.durable.Load()
	require.True(t, ok)
	assert.Equal(t, "tok", durableRec.Token)
	assert.True(t, durableRec.Remember)
	assert.WithinDuration(t, time.Now(), durableRec.LoginAt, time.Minute)

	cookieRec, ok := f.cookies.Load()
	require.True(t, ok)
	assert.Equal(t, "tok", cookieRec.Token)
}

func TestLogoutClearsAndNotifiesServer(t *testing.T) {
	v := &fakeVerifier{logoutCalls: make(chan string, 1)}
	f := newFixture(t, v)
	f.manager.Login("tok", testUser(), false)

	f.manager.Logout(context.Background())

	state, _ := f.manager.Snapshot()
	assert.Equal(t, StateAnonymous, state)
	_, ok := f.durable.Load()
	assert.False(t, ok)
	_, ok = f.cookies.Load()
	assert.False(t, ok)

	select {
	case token := <-v.logoutCalls:
		assert.Equal(t, "tok", token)
	case <-time.After(2 * time.Second):
		t.Fatal("server logout was never called")
	}
}

func TestRefreshOverwritesUser(t *testing.T) {
	updated := testUser()
	updated.Phone = ptr("+123")
	v := &fakeVerifier{profileFn: func(string) (models.User, error) {
		return updated, nil
	}}
	f := newFixture(t, v)
	f.manager.Login("tok", testUser(), false)

	require.NoError(t, f.manager.Refresh(context.Background()))

	_, user := f.manager.Snapshot()
	require.NotNil(t, user.Phone)
	assert.Equal(t, "+123", *user.Phone)

	rec, ok := f.durable.Load()
	require.True(t, ok)
	require.NotNil(t, rec.User.Phone)
}

func TestRefreshUnauthorizedForcesLogout(t *testing.T) {
	v := &fakeVerifier{profileFn: func(string) (models.User, error) {
		return models.User{}, apiclient.ErrUnauthorized
	}}
	f := newFixture(t, v)
	f.manager.Login("tok", testUser(), false)

	err := f.manager.Refresh(context.Background())

	require.Error(t, err)
	state, _ := f.manager.Snapshot()
	assert.Equal(t, StateAnonymous, state)
	assert.Equal(t, 1, f.logouts, "logout hook must fire")
	_, ok := f.durable.Load()
	assert.False(t, ok)
}

func TestRefreshNetworkErrorKeepsSession(t *testing.T) {
	v := &fakeVerifier{profileFn: func(string) (models.User, error) {
		return models.User{}, errors.New("connection refused")
	}}
	f := newFixture(t, v)
	f.manager.Login("tok", testUser(), false)

	err := f.manager.Refresh(context.Background())

	require.Error(t, err)
	state, _ := f.manager.Snapshot()
	assert.Equal(t, StateAuthenticated, state)
}

func TestRevalidateFailureLogsOut(t *testing.T) {
	v := &fakeVerifier{profileFn: func(string) (models.User, error) {
		return models.User{}, errors.New("boom")
	}}
	f := newFixture(t, v)
	f.manager.Login("tok", testUser(), false)

	f.manager.revalidate(context.Background())

	state, _ := f.manager.Snapshot()
	assert.Equal(t, StateAnonymous, state)
	assert.Equal(t, 1, f.logouts)
}

func TestUpdateUserShallowMerge(t *testing.T) {
	f := newFixture(t, &fakeVerifier{})
	f.manager.Login("tok", testUser(), false)

	f.manager.UpdateUser(UserPatch{FirstName: ptr("Grace"), Phone: ptr("+49")})

	_, user := f.manager.Snapshot()
	assert.Equal(t, "Grace", user.FirstName)
	assert.Equal(t, "Lovelace", user.LastName)
	require.NotNil(t, user.Phone)
	assert.Equal(t, "+49", *user.Phone)

	rec, ok := f.durable.Load()
	require.True(t, ok)
	assert.Equal(t, "Grace", rec.User.FirstName)
}

func ptr(s string) *string { return &s }
