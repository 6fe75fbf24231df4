package tcp

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/protocol"
	"github.com/dmitrijs2005/treasurehunt/internal/server/activity"
	"github.com/dmitrijs2005/treasurehunt/internal/server/services"
	"github.com/google/uuid"
)

// session runs the command loop of one connection: greet, then read one
// line, answer it with one response unit, repeat until the peer leaves.
type session struct {
	conn     net.Conn
	r        *bufio.Reader
	w        *bufio.Writer
	peer     services.Peer
	service  *services.TreasureService
	activity activity.Recorder
	logger   logging.Logger
}

func newSession(conn net.Conn, svc *services.TreasureService, rec activity.Recorder, l logging.Logger) *session {
	peer := services.Peer{SessionID: uuid.NewString(), Remote: conn.RemoteAddr().String()}
	return &session{
		conn:     conn,
		r:        bufio.NewReader(conn),
		w:        bufio.NewWriter(conn),
		peer:     peer,
		service:  svc,
		activity: rec,
		logger:   l.With("session", peer.SessionID, "remote", peer.Remote),
	}
}

func (ss *session) run(ctx context.Context) {
	defer ss.conn.Close()
	defer func() {
		if p := recover(); p != nil {
			ss.fail(ctx, fmt.Errorf("panic: %v", p))
		}
	}()

	ss.activity.Record(ctx, activity.Connected(ss.peer.SessionID, ss.peer.Remote))
	ss.logger.Debug(ctx, "session started")

	if err := ss.flushAfter(protocol.WriteBlock(ss.w, protocol.Greeting)); err != nil {
		ss.fail(ctx, err)
		return
	}

	for {
		line, err := protocol.ReadLine(ss.r, protocol.MaxLineLength)
		switch {
		case errors.Is(err, io.EOF):
			ss.activity.Record(ctx, activity.Disconnected(ss.peer.SessionID, ss.peer.Remote, false))
			return
		case errors.Is(err, common.ErrorLineTooLong):
			ss.logger.Debug(ctx, "over-long line discarded")
			if err := ss.flushAfter(protocol.WriteLine(ss.w, protocol.ReplyInvalidCommand)); err != nil {
				ss.fail(ctx, err)
				return
			}
			continue
		case err != nil:
			ss.fail(ctx, err)
			return
		}

		done, err := ss.dispatch(ctx, line)
		if err = ss.flushAfter(err); err != nil {
			ss.fail(ctx, err)
			return
		}
		if done {
			ss.activity.Record(ctx, activity.Disconnected(ss.peer.SessionID, ss.peer.Remote, true))
			return
		}
	}
}

// dispatch executes one command line and writes its response. It reports
// whether the session is over.
func (ss *session) dispatch(ctx context.Context, line string) (bool, error) {
	cmd, err := protocol.Parse(line)
	if err != nil {
		reply := protocol.ReplyInvalidCommand
		var pe *protocol.ParseError
		if errors.As(err, &pe) {
			reply = pe.Reply()
		}
		ss.logger.Debug(ctx, "rejected command", "line", line, "error", err)
		return false, protocol.WriteLine(ss.w, reply)
	}

	switch cmd.Kind {
	case protocol.KindTreasure:
		reply, err := ss.service.Upload(ctx, ss.peer, cmd, ss.r)
		if werr := protocol.WriteLine(ss.w, reply); err == nil {
			err = werr
		}
		return false, err

	case protocol.KindReveal:
		return false, ss.service.Download(ctx, ss.peer, cmd, ss.w)

	case protocol.KindMap:
		return false, protocol.WriteBlock(ss.w, ss.service.List(ctx))

	case protocol.KindEndQuest:
		return true, protocol.WriteLine(ss.w, protocol.ReplyFarewell)
	}

	return false, protocol.WriteLine(ss.w, protocol.ReplyInvalidCommand)
}

func (ss *session) flushAfter(err error) error {
	if err != nil {
		return err
	}
	return ss.w.Flush()
}

func (ss *session) fail(ctx context.Context, err error) {
	ss.logger.Warn(ctx, "session aborted", "error", err)
	ss.activity.Record(ctx, activity.Failed(ss.peer.SessionID, ss.peer.Remote, err))
}
