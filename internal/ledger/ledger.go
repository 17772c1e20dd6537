// Package ledger is a file-backed key-value store for small JSON documents,
// the local equivalent of the browser's durable storage. Callers never see
// errors: a missing file, an unwritable directory and corrupt JSON are all
// treated the same as empty state.
package ledger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/rs/zerolog"
)

type Ledger struct {
	dir string
	log zerolog.Logger
}

// New returns a ledger rooted at dir. An empty dir yields a ledger whose
// storage is unavailable: reads return empty state and writes are dropped.
func New(dir string, log zerolog.Logger) *Ledger {
	return &Ledger{dir: dir, log: log}
}

// Available reports whether writes have anywhere to go.
func (l *Ledger) Available() bool {
	return l.dir != ""
}

// Read decodes the stored value for key into out, which must be a pointer.
// When the key is absent, storage is unavailable or the stored value fails
// to parse, out is left at its zero value. Read never fails.
func (l *Ledger) Read(key string, out any) {
	if l.dir == "" {
		return
	}
	data, err := os.ReadFile(l.path(key))
	if err != nil {
		return
	}
	dst := reflect.ValueOf(out)
	if dst.Kind() != reflect.Pointer || dst.IsNil() {
		return
	}
	// Decode into a scratch value so a corrupt entry cannot leave out
	// partially populated.
	tmp := reflect.New(dst.Type().Elem())
	if err := json.Unmarshal(data, tmp.Interface()); err != nil {
		l.log.Debug().Str("key", key).Err(err).Msg("ledger entry corrupt, treating as empty")
		return
	}
	dst.Elem().Set(tmp.Elem())
}

// Write serializes value and overwrites the stored entry for key. Failures
// are logged and swallowed.
func (l *Ledger) Write(key string, value any) {
	if l.dir == "" {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		l.log.Debug().Str("key", key).Err(err).Msg("ledger marshal failed")
		return
	}
	if err := os.MkdirAll(l.dir, 0o700); err != nil {
		l.log.Debug().Str("key", key).Err(err).Msg("ledger dir unavailable")
		return
	}
	if err := os.WriteFile(l.path(key), data, 0o600); err != nil {
		l.log.Debug().Str("key", key).Err(err).Msg("ledger write failed")
	}
}

// Delete removes the stored entry for key if present.
func (l *Ledger) Delete(key string) {
	if l.dir == "" {
		return
	}
	_ = os.Remove(l.path(key))
}

func (l *Ledger) path(key string) string {
	// Keys are internal constants, but keep them filesystem-safe anyway.
	safe := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, key)
	return filepath.Join(l.dir, safe+".json")
}
