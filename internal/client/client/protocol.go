package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/dmitrijs2005/treasurehunt/internal/protocol"
)

type Client struct {
	conn     net.Conn
	r        *bufio.Reader
	w        *bufio.Writer
	greeting []string
	pending  *Transfer
	closed   bool
}

// Dial connects to addr and consumes the greeting banner.
func Dial(ctx context.Context, addr string, timeout time.Duration) (*Client, error) {
	d := net.Dialer{Timeout: timeout}
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	c, err := New(ctx, conn)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return c, nil
}

// New takes over an established connection and reads the greeting.
func New(ctx context.Context, conn net.Conn) (*Client, error) {
	c := &Client{conn: conn, r: bufio.NewReader(conn), w: bufio.NewWriter(conn)}

	stop := c.watch(ctx)
	defer stop()

	greeting, err := protocol.ReadBlock(c.r, protocol.MaxLineLength)
	if err != nil {
		return nil, fmt.Errorf("read greeting: %w", err)
	}
	c.greeting = greeting
	return c, nil
}

// Greeting returns the banner lines the server sent on connect.
func (c *Client) Greeting() []string { return c.greeting }

func (c *Client) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	return c.conn.Close()
}

// watch aborts blocking I/O when ctx is done. The returned func must be
// called once the operation is over.
func (c *Client) watch(ctx context.Context) func() {
	if dl, ok := ctx.Deadline(); ok {
		_ = c.conn.SetDeadline(dl)
	}
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetDeadline(time.Now())
	})
	return func() {
		stop()
		_ = c.conn.SetDeadline(time.Time{})
	}
}

// begin prepares the connection for a new command: any unread download
// body is discarded so the next line read is the next response.
func (c *Client) begin() error {
	if c.closed {
		return ErrClosed
	}
	if t := c.pending; t != nil {
		c.pending = nil
		if _, err := io.Copy(io.Discard, t.Body); err != nil {
			return fmt.Errorf("discard unread payload: %w", err)
		}
	}
	return nil
}

func (c *Client) send(line string) error {
	if err := protocol.WriteLine(c.w, line); err != nil {
		return err
	}
	return c.w.Flush()
}

func (c *Client) readLine() (string, error) {
	line, err := protocol.ReadLine(c.r, protocol.MaxLineLength)
	if errors.Is(err, io.EOF) {
		return "", fmt.Errorf("%w: server closed the connection", ErrClosed)
	}
	return line, err
}

// Upload sends name with size bytes read from r and the expected digest.
// It returns the name the server stored the file under, which differs
// from name when a version suffix was added.
func (c *Client) Upload(ctx context.Context, name string, size int64, sum string, r io.Reader) (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	stop := c.watch(ctx)
	defer stop()

	if err := protocol.WriteLine(c.w, protocol.FormatTreasure(name, size, sum)); err != nil {
		return "", err
	}
	n, err := io.CopyN(c.w, r, size)
	if err != nil {
		// The server is still waiting for payload; the stream cannot be resynced.
		_ = c.Close()
		return "", fmt.Errorf("send payload: %w (%d of %d bytes)", err, n, size)
	}
	if err := c.w.Flush(); err != nil {
		return "", err
	}

	reply, err := c.readLine()
	if err != nil {
		return "", err
	}

	if stored, ok := protocol.ParseBuried(reply); ok {
		return stored, nil
	}
	switch reply {
	case protocol.ReplyCorrupted:
		return "", fmt.Errorf("%w: %s", common.ErrorIntegrity, reply)
	case protocol.ReplyInvalidTreasure, protocol.ReplyInvalidCommand:
		return "", fmt.Errorf("%w: %s", ErrRejected, reply)
	}
	return "", fmt.Errorf("%w: %q", common.ErrorUnknownReply, reply)
}

// Transfer is an announced download. Body yields exactly the bytes from
// Offset to the end of the file and must be consumed (or abandoned by
// issuing the next command) before the connection is reused.
type Transfer struct {
	Name   string
	Size   int64
	Digest string
	Offset int64
	Body   io.Reader
}

// Remaining is the number of bytes Body carries.
func (t *Transfer) Remaining() int64 {
	if t.Offset >= t.Size {
		return 0
	}
	return t.Size - t.Offset
}

// Reveal asks for name starting at offset. Size and Digest of the result
// always describe the whole file.
func (c *Client) Reveal(ctx context.Context, name string, offset int64) (*Transfer, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	stop := c.watch(ctx)
	defer stop()

	if err := c.send(protocol.FormatReveal(name, offset)); err != nil {
		return nil, err
	}

	reply, err := c.readLine()
	if err != nil {
		return nil, err
	}
	switch reply {
	case protocol.ReplyNotFound:
		return nil, fmt.Errorf("%w: %s", common.ErrorNotFound, name)
	case protocol.ReplyInvalidReveal, protocol.ReplyInvalidCommand:
		return nil, fmt.Errorf("%w: %s", ErrRejected, reply)
	}

	size, sum, err := protocol.ParseReady(reply)
	if err != nil {
		return nil, err
	}

	t := &Transfer{Name: name, Size: size, Digest: sum, Offset: offset}
	t.Body = &bodyReader{r: io.LimitReader(c.r, t.Remaining())}
	c.pending = t
	return t, nil
}

// bodyReader turns a premature EOF into ErrorShortTransfer.
type bodyReader struct {
	r io.Reader
}

func (b *bodyReader) Read(p []byte) (int, error) {
	n, err := b.r.Read(p)
	if errors.Is(err, io.EOF) {
		if lr, ok := b.r.(*io.LimitedReader); ok && lr.N > 0 {
			return n, fmt.Errorf("%w: %d bytes missing", common.ErrorShortTransfer, lr.N)
		}
	}
	return n, err
}

// List returns the names currently stored on the server.
func (c *Client) List(ctx context.Context) ([]string, error) {
	if err := c.begin(); err != nil {
		return nil, err
	}
	stop := c.watch(ctx)
	defer stop()

	if err := c.send(protocol.VerbMap); err != nil {
		return nil, err
	}

	lines, err := protocol.ReadBlock(c.r, protocol.MaxLineLength)
	if err != nil {
		return nil, fmt.Errorf("read listing: %w", err)
	}
	if len(lines) == 1 && lines[0] == protocol.ReplyNoFiles {
		return []string{}, nil
	}
	return lines, nil
}

// End sends ENDQUEST, returns the farewell line and closes the connection.
func (c *Client) End(ctx context.Context) (string, error) {
	if err := c.begin(); err != nil {
		return "", err
	}
	defer c.Close()
	stop := c.watch(ctx)
	defer stop()

	if err := c.send(protocol.VerbEndQuest); err != nil {
		return "", err
	}
	reply, err := c.readLine()
	if err != nil {
		return "", err
	}
	if reply != protocol.ReplyFarewell {
		return reply, fmt.Errorf("%w: %q", common.ErrorUnknownReply, reply)
	}
	return reply, nil
}
