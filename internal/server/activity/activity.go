// Package activity writes the append-only activity log: one timestamped
// line per connect, disconnect, upload, download or error event. Events
// can additionally be copied into a Store (see repositories/events); the
// text file stays the primary record.
package activity

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
	"github.com/sirupsen/logrus"
)

// storeTimeout bounds a single Store insert.
const storeTimeout = 2 * time.Second

// Recorder accepts activity events.
type Recorder interface {
	Record(ctx context.Context, e models.Event)
}

// Store persists events somewhere queryable.
type Store interface {
	Insert(ctx context.Context, e *models.Event) error
}

type Log struct {
	out    *logrus.Logger
	closer io.Closer
	store  Store
	logger logging.Logger
	now    func() time.Time
}

type Option func(*Log)

// WithStore mirrors every event into s. Insert failures are reported to
// logger and do not affect the text log.
func WithStore(s Store, logger logging.Logger) Option {
	return func(l *Log) {
		l.store = s
		l.logger = logger
	}
}

// Open appends to the log file at path, creating it if needed.
func Open(path string, opts ...Option) (*Log, error) {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o640)
	if err != nil {
		return nil, fmt.Errorf("open activity log: %w", err)
	}

	l := New(f, opts...)
	l.closer = f
	return l, nil
}

// New writes the log to w.
func New(w io.Writer, opts ...Option) *Log {
	out := logrus.New()
	out.SetOutput(w)
	out.SetLevel(logrus.InfoLevel)
	out.SetFormatter(&logrus.TextFormatter{
		DisableColors:    true,
		FullTimestamp:    true,
		TimestampFormat:  time.RFC3339,
		QuoteEmptyFields: true,
	})

	l := &Log{out: out, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

func (l *Log) Record(ctx context.Context, e models.Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = l.now()
	}

	fields := logrus.Fields{"kind": string(e.Kind)}
	if e.SessionID != "" {
		fields["session"] = e.SessionID
	}
	if e.RemoteAddr != "" {
		fields["remote"] = e.RemoteAddr
	}

	entry := l.out.WithTime(e.OccurredAt).WithFields(fields)
	if e.Kind == models.EventError || e.Kind == models.EventUploadFailed {
		entry.Warn(e.Message)
	} else {
		entry.Info(e.Message)
	}

	if l.store == nil {
		return
	}

	sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), storeTimeout)
	defer cancel()
	if err := l.store.Insert(sctx, &e); err != nil && l.logger != nil {
		l.logger.Warn(ctx, "activity store insert failed", "kind", e.Kind, "error", err)
	}
}

func (l *Log) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
