package activity

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	mu     sync.Mutex
	events []models.Event
	err    error
}

func (s *fakeStore) Insert(_ context.Context, e *models.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *e)
	return s.err
}

type recLogger struct {
	mu    sync.Mutex
	warns []string
}

func (l *recLogger) Debug(context.Context, string, ...any) {}
func (l *recLogger) Info(context.Context, string, ...any)  {}
func (l *recLogger) Warn(_ context.Context, msg string, _ ...any) {
	l.mu.Lock()
	l.warns = append(l.warns, msg)
	l.mu.Unlock()
}
func (l *recLogger) Error(context.Context, string, ...any) {}
func (l *recLogger) With(...any) logging.Logger            { return l }

func TestLog_WritesOneLinePerEvent(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)
	ctx := context.Background()

	l.Record(ctx, Connected("s1", "10.0.0.7:40000"))
	l.Record(ctx, Uploaded("s1", "10.0.0.7:40000", "notes.txt", 5))
	l.Record(ctx, UploadFailed("s1", "10.0.0.7:40000", "notes_v1.txt", 5, "hash mismatch"))
	l.Record(ctx, Downloaded("s1", "10.0.0.7:40000", "notes.txt", 5, 2))
	l.Record(ctx, Disconnected("s1", "10.0.0.7:40000", true))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)

	assert.Contains(t, lines[0], `msg="New connection from 10.0.0.7:40000"`)
	assert.Contains(t, lines[0], "kind=connect")
	assert.Contains(t, lines[0], "session=s1")
	assert.Contains(t, lines[0], "time=")

	assert.Contains(t, lines[1], `msg="File 'notes.txt' uploaded successfully."`)
	assert.Contains(t, lines[2], "level=warning")
	assert.Contains(t, lines[2], "upload failed (hash mismatch)")
	assert.Contains(t, lines[3], "downloaded (offset 2)")
	assert.Contains(t, lines[4], "disconnected gracefully")
}

func TestLog_UsesEventTime(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf)

	e := ServerError(errors.New("accept: too many open files"))
	e.OccurredAt = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	l.Record(context.Background(), e)

	assert.Contains(t, buf.String(), `time="2024-05-01T12:00:00Z"`)
	assert.Contains(t, buf.String(), "Server error: accept: too many open files")
}

func TestLog_MirrorsToStore(t *testing.T) {
	var buf bytes.Buffer
	store := &fakeStore{}
	l := New(&buf, WithStore(store, &recLogger{}))
	fixed := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	l.now = func() time.Time { return fixed }

	l.Record(context.Background(), Downloaded("s9", "peer", "map.png", 100, 40))

	require.Len(t, store.events, 1)
	got := store.events[0]
	assert.Equal(t, models.EventDownload, got.Kind)
	assert.Equal(t, "map.png", got.FileName)
	assert.Equal(t, int64(100), got.Size)
	assert.Equal(t, int64(40), got.Offset)
	assert.Equal(t, fixed, got.OccurredAt)
}

func TestLog_StoreFailureIsReportedNotFatal(t *testing.T) {
	var buf bytes.Buffer
	logger := &recLogger{}
	l := New(&buf, WithStore(&fakeStore{err: errors.New("db down")}, logger))

	l.Record(context.Background(), Failed("s1", "peer", errors.New("broken pipe")))

	assert.Contains(t, buf.String(), "Error with peer: broken pipe")
	assert.Equal(t, []string{"activity store insert failed"}, logger.warns)
}

func TestOpen_AppendsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server_log.txt")

	l, err := Open(path)
	require.NoError(t, err)
	l.Record(context.Background(), Connected("a", "first"))
	require.NoError(t, l.Close())

	l, err = Open(path)
	require.NoError(t, err)
	l.Record(context.Background(), Connected("b", "second"))
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "first")
	assert.Contains(t, lines[1], "second")
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "log.txt"))
	require.Error(t, err)
}
