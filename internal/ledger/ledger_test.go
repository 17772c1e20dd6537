package ledger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadMissingKey(t *testing.T) {
	l := New(t.TempDir(), zerolog.Nop())

	got := map[string]string{}
	l.Read("absent", &got)
	assert.Empty(t, got)
}

func TestWriteReadRoundTrip(t *testing.T) {
	l := New(t.TempDir(), zerolog.Nop())

	in := map[string]map[string]string{
		"event-1": {"user-1": "paid"},
	}
	l.Write("payments", in)

	got := map[string]map[string]string{}
	l.Read("payments", &got)
	assert.Equal(t, in, got)
}

func TestReadCorruptEntry(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payments.json"), []byte("{not json"), 0o600))

	l := New(dir, zerolog.Nop())
	got := map[string]string{}
	l.Read("payments", &got)
	assert.Empty(t, got)
}

func TestReadTypeMismatchLeavesOutEmpty(t *testing.T) {
	dir := t.TempDir()
	// Valid JSON, but event-2 cannot decode into the nested map type. The
	// whole read must come back empty, not stop halfway through.
	corrupt := []byte(`{"event-1":{"user-1":"paid"},"event-2":5}`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "payments.json"), corrupt, 0o600))

	l := New(dir, zerolog.Nop())
	got := map[string]map[string]string{}
	l.Read("payments", &got)
	assert.Empty(t, got)
}

func TestUnavailableStorage(t *testing.T) {
	l := New("", zerolog.Nop())
	assert.False(t, l.Available())

	// Neither call may panic or error.
	l.Write("key", map[string]string{"a": "b"})
	got := map[string]string{}
	l.Read("key", &got)
	assert.Empty(t, got)
}

func TestWriteOverwrites(t *testing.T) {
	l := New(t.TempDir(), zerolog.Nop())

	l.Write("key", map[string]string{"a": "1", "b": "2"})
	l.Write("key", map[string]string{"c": "3"})

	got := map[string]string{}
	l.Read("key", &got)
	assert.Equal(t, map[string]string{"c": "3"}, got)
}

func TestKeySanitized(t *testing.T) {
	dir := t.TempDir()
	l := New(dir, zerolog.Nop())

	l.Write("../escape", map[string]string{"a": "b"})

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "___escape.json", entries[0].Name())
}
