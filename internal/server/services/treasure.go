// Package services holds the executors behind the TREASURE, REVEAL and MAP
// commands. They read and write the connection streams handed over by the
// session and report every outcome to the activity log.
package services

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/dmitrijs2005/treasurehunt/internal/digest"
	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/protocol"
	"github.com/dmitrijs2005/treasurehunt/internal/server/activity"
	"github.com/dmitrijs2005/treasurehunt/internal/server/repository"
)

// DefaultChunkSize is used when no positive chunk size is configured.
const DefaultChunkSize = 32 * 1024

// Peer identifies the session a request arrived on.
type Peer struct {
	SessionID string
	Remote    string
}

type TreasureService struct {
	repo      *repository.Repository
	activity  activity.Recorder
	chunkSize int
	logger    logging.Logger
}

func NewTreasureService(repo *repository.Repository, rec activity.Recorder, chunkSize int, l logging.Logger) *TreasureService {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	return &TreasureService{
		repo:      repo,
		activity:  rec,
		chunkSize: chunkSize,
		logger:    l.With("module", "treasure_service"),
	}
}

// Upload consumes the cmd.Size payload bytes that follow a TREASURE line
// from r and returns the status line to send back.
//
// The payload is always read in full, whatever the outcome, so the next
// command line starts where the client expects it. The returned error is
// non-nil only when reading from the connection failed for a reason other
// than the peer closing it; the session cannot continue in that case.
func (s *TreasureService) Upload(ctx context.Context, p Peer, cmd protocol.Command, r io.Reader) (string, error) {
	buf := make([]byte, s.chunkSize)

	if err := repository.ValidateName(cmd.Name); err != nil {
		return s.reject(ctx, p, cmd, r, buf, err)
	}

	rv, err := s.repo.Reserve(cmd.Name)
	if err != nil {
		_, rerr := receive(io.Discard, r, cmd.Size, buf)
		s.logger.Error(ctx, "reserve failed", "name", cmd.Name, "error", err)
		s.activity.Record(ctx, activity.Failed(p.SessionID, p.Remote, err))
		return protocol.ReplyInvalidTreasure, connErr(rerr)
	}

	h := digest.New()
	sink := &storeWriter{dst: rv}
	n, rerr := receive(h.Tee(sink), r, cmd.Size, buf)

	switch {
	case sink.err != nil:
		_ = rv.Abort()
		err := fmt.Errorf("store %s: %w", rv.Name(), sink.err)
		s.logger.Error(ctx, "upload write failed", "name", rv.Name(), "error", err)
		s.activity.Record(ctx, activity.Failed(p.SessionID, p.Remote, err))
		return protocol.ReplyInvalidTreasure, connErr(rerr)

	case n < cmd.Size:
		_ = rv.Abort()
		reason := fmt.Sprintf("%v: received %d of %d bytes", common.ErrorShortTransfer, n, cmd.Size)
		s.activity.Record(ctx, activity.UploadFailed(p.SessionID, p.Remote, rv.Name(), n, reason))
		return protocol.ReplyCorrupted, connErr(rerr)

	case !digest.Equal(h.Hex(), cmd.Digest):
		_ = rv.Abort()
		reason := common.ErrorIntegrity.Error()
		if !digest.Valid(cmd.Digest) {
			reason = fmt.Sprintf("%v: %q", common.ErrorInvalidHash, cmd.Digest)
		}
		s.activity.Record(ctx, activity.UploadFailed(p.SessionID, p.Remote, rv.Name(), n, reason))
		return protocol.ReplyCorrupted, nil
	}

	final, err := rv.Commit()
	if err != nil {
		s.logger.Error(ctx, "publish failed", "name", cmd.Name, "error", err)
		s.activity.Record(ctx, activity.Failed(p.SessionID, p.Remote, err))
		return protocol.ReplyInvalidTreasure, nil
	}

	s.activity.Record(ctx, activity.Uploaded(p.SessionID, p.Remote, final, n))
	return protocol.Buried(final), nil
}

func (s *TreasureService) reject(ctx context.Context, p Peer, cmd protocol.Command, r io.Reader, buf []byte, cause error) (string, error) {
	_, rerr := receive(io.Discard, r, cmd.Size, buf)
	s.logger.Warn(ctx, "upload rejected", "name", cmd.Name, "error", cause)
	s.activity.Record(ctx, activity.UploadFailed(p.SessionID, p.Remote, cmd.Name, cmd.Size, cause.Error()))
	return protocol.ReplyInvalidTreasure, connErr(rerr)
}

// Download answers a REVEAL: either the not-found line, or the READY line
// followed by the file content from cmd.Offset on. The announced size and
// digest always describe the whole file. An error means w is no longer in
// a consistent state and the connection must be dropped.
func (s *TreasureService) Download(ctx context.Context, p Peer, cmd protocol.Command, w io.Writer) error {
	f, _, err := s.repo.Open(cmd.Name)
	if err != nil {
		if !errors.Is(err, common.ErrorNotFound) {
			s.logger.Error(ctx, "open failed", "name", cmd.Name, "error", err)
		}
		return protocol.WriteLine(w, protocol.ReplyNotFound)
	}
	defer f.Close()

	buf := make([]byte, s.chunkSize)

	sum, size, err := digest.Reader(f, buf)
	if err != nil {
		s.logger.Error(ctx, "hashing failed", "name", cmd.Name, "error", err)
		return protocol.WriteLine(w, protocol.ReplyNotFound)
	}

	if err := protocol.WriteLine(w, protocol.Ready(size, sum)); err != nil {
		return err
	}

	if cmd.Offset < size {
		if _, err := f.Seek(cmd.Offset, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", cmd.Name, err)
		}
		want := size - cmd.Offset
		n, err := io.CopyBuffer(w, io.LimitReader(f, want), buf)
		if err != nil {
			return fmt.Errorf("send %s: %w", cmd.Name, err)
		}
		if n < want {
			return fmt.Errorf("send %s: %w: %d of %d bytes", cmd.Name, common.ErrorShortTransfer, n, want)
		}
	}

	s.activity.Record(ctx, activity.Downloaded(p.SessionID, p.Remote, cmd.Name, size, cmd.Offset))
	return nil
}

// List returns the MAP response lines: the stored names, or the
// no-files line when there are none.
func (s *TreasureService) List(ctx context.Context) []string {
	names, err := s.repo.List()
	if err != nil {
		s.logger.Error(ctx, "listing failed", "error", err)
	}
	if len(names) == 0 {
		return []string{protocol.ReplyNoFiles}
	}
	return names
}

// receive moves up to size bytes from r to dst in len(buf) chunks. Write
// errors are left to dst; see storeWriter.
func receive(dst io.Writer, r io.Reader, size int64, buf []byte) (int64, error) {
	var n int64
	for n < size {
		chunk := buf
		if rest := size - n; rest < int64(len(chunk)) {
			chunk = chunk[:rest]
		}

		m, err := r.Read(chunk)
		if m > 0 {
			_, _ = dst.Write(chunk[:m])
			n += int64(m)
		}
		if err != nil {
			if n < size {
				return n, err
			}
			break
		}
	}
	return n, nil
}

// storeWriter remembers the first write error and swallows the rest of the
// stream, so a failing disk does not stop the payload from being drained.
type storeWriter struct {
	dst io.Writer
	err error
}

func (w *storeWriter) Write(p []byte) (int, error) {
	if w.err == nil {
		_, w.err = w.dst.Write(p)
	}
	return len(p), nil
}

// connErr filters out the peer closing the connection mid-payload; the
// session notices that on its next read.
func connErr(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return nil
	}
	return err
}
