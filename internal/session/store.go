package session

import (
	"encoding/json"
	"net/url"
	"strconv"
	"time"

	"gatherly/internal/ledger"
	"gatherly/internal/models"
)

// Record is one persisted copy of the authenticated session.
type Record struct {
	Token    string
	User     models.User
	LoginAt  time.Time
	Remember bool
}

// Store persists a session record. The manager owns two stores, a durable
// one and a cookie-based fallback, and keeps them synchronized through a
// single write path.
type Store interface {
	// Load returns the stored record. ok is false when no usable record
	// exists; per-field corruption degrades to an empty field, a missing
	// token invalidates the whole record.
	Load() (rec Record, ok bool)
	Save(rec Record)
	Clear()
}

const (
	keyToken     = "auth_token"
	keyUserData  = "user_data"
	keyLoginAt   = "login_timestamp"
	keyRemember  = "remember_me"
	cookieBundle = "auth_cookies"
)

// FileStore is the durable layer, one ledger entry per key mirroring the
// original browser-storage layout: raw token, user record JSON and the login
// timestamp as stringified epoch milliseconds.
type FileStore struct {
	ledger *ledger.Ledger
}

func NewFileStore(l *ledger.Ledger) *FileStore {
	return &FileStore{ledger: l}
}

func (s *FileStore) Load() (Record, bool) {
	var rec Record
	s.ledger.Read(keyToken, &rec.Token)
	if rec.Token == "" {
		return Record{}, false
	}

	s.ledger.Read(keyUserData, &rec.User)

	var millis string
	s.ledger.Read(keyLoginAt, &millis)
	if parsed, err := strconv.ParseInt(millis, 10, 64); err == nil {
		rec.LoginAt = time.UnixMilli(parsed)
	}

	s.ledger.Read(keyRemember, &rec.Remember)
	return rec, true
}

func (s *FileStore) Save(rec Record) {
	s.ledger.Write(keyToken, rec.Token)
	s.ledger.Write(keyUserData, rec.User)
	s.ledger.Write(keyLoginAt, strconv.FormatInt(rec.LoginAt.UnixMilli(), 10))
	s.ledger.Write(keyRemember, rec.Remember)
}

func (s *FileStore) Clear() {
	for _, key := range []string{keyToken, keyUserData, keyLoginAt, keyRemember} {
		s.ledger.Delete(key)
	}
}

// CookieStore is the fallback layer, a cookie-jar file holding the pair
// auth_token (raw token) and user_data (URL-encoded JSON user record), both
// with a bounded max age. Expired cookies read as absent.
type CookieStore struct {
	ledger *ledger.Ledger
	maxAge time.Duration
	now    func() time.Time
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Expires time.Time `json:"expires"`
}

func NewCookieStore(l *ledger.Ledger, maxAge time.Duration) *CookieStore {
	return &CookieStore{ledger: l, maxAge: maxAge, now: time.Now}
}

func (s *CookieStore) Load() (Record, bool) {
	cookies := s.read()

	var rec Record
	for _, c := range cookies {
		switch c.Name {
		case keyToken:
			rec.Token = c.Value
		case keyUserData:
			if decoded, err := url.QueryUnescape(c.Value); err == nil {
				_ = json.Unmarshal([]byte(decoded), &rec.User)
			}
		}
	}
	if rec.Token == "" {
		return Record{}, false
	}
	return rec, true
}

// Token returns the raw auth token cookie, or "" when absent or expired.
// The notification poller uses this to decide whether to poll at all,
// independently of the manager's state.
func (s *CookieStore) Token() string {
	for _, c := range s.read() {
		if c.Name == keyToken {
			return c.Value
		}
	}
	return ""
}

func (s *CookieStore) Save(rec Record) {
	userJSON, err := json.Marshal(rec.User)
	if err != nil {
		userJSON = []byte("{}")
	}
	expires := s.now().Add(s.maxAge)
	s.ledger.Write(cookieBundle, []storedCookie{
		{Name: keyToken, Value: rec.Token, Expires: expires},
		{Name: keyUserData, Value: url.QueryEscape(string(userJSON)), Expires: expires},
	})
}

func (s *CookieStore) Clear() {
	s.ledger.Delete(cookieBundle)
}

func (s *CookieStore) read() []storedCookie {
	var cookies []storedCookie
	s.ledger.Read(cookieBundle, &cookies)

	alive := cookies[:0]
	for _, c := range cookies {
		if c.Expires.After(s.now()) {
			alive = append(alive, c)
		}
	}
	return alive
}
