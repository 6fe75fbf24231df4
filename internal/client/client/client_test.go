package client

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/treasurehunt/internal/common"
	"github.com/dmitrijs2005/treasurehunt/internal/digest"
	"github.com/dmitrijs2005/treasurehunt/internal/logging"
	"github.com/dmitrijs2005/treasurehunt/internal/protocol"
	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
	"github.com/dmitrijs2005/treasurehunt/internal/server/repository"
	"github.com/dmitrijs2005/treasurehunt/internal/server/services"
	"github.com/dmitrijs2005/treasurehunt/internal/server/tcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopLogger struct{}

func (n nopLogger) Debug(context.Context, string, ...any) {}
func (n nopLogger) Info(context.Context, string, ...any)  {}
func (n nopLogger) Warn(context.Context, string, ...any)  {}
func (n nopLogger) Error(context.Context, string, ...any) {}
func (n nopLogger) With(...any) logging.Logger            { return n }

type nopRecorder struct{}

func (nopRecorder) Record(context.Context, models.Event) {}

func startServer(t *testing.T) (string, *repository.Repository) {
	t.Helper()

	repo, err := repository.New(t.TempDir())
	require.NoError(t, err)
	svc := services.NewTreasureService(repo, nopRecorder{}, 512, nopLogger{})
	srv := tcp.NewServer("", svc, nopRecorder{}, nopLogger{}, tcp.Options{})

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = srv.Serve(ctx, lis)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return lis.Addr().String(), repo
}

func dial(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := Dial(context.Background(), addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func upload(t *testing.T, c *Client, name, content string) string {
	t.Helper()
	stored, err := c.Upload(context.Background(), name, int64(len(content)), digest.Bytes([]byte(content)), strings.NewReader(content))
	require.NoError(t, err)
	return stored
}

func TestDial_ReadsGreeting(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	assert.Equal(t, protocol.Greeting, c.Greeting())
}

func TestDial_Unavailable(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	_, err = Dial(context.Background(), addr, time.Second)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestClient_UploadRevealList(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	names, err := c.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, names)

	assert.Equal(t, "notes.txt", upload(t, c, "notes.txt", "hello"))
	assert.Equal(t, "notes_v1.txt", upload(t, c, "notes.txt", "world"))

	tr, err := c.Reveal(ctx, "notes.txt", 2)
	require.NoError(t, err)
	assert.Equal(t, int64(5), tr.Size)
	assert.Equal(t, int64(3), tr.Remaining())
	assert.Equal(t, digest.Bytes([]byte("hello")), tr.Digest)
	body, err := io.ReadAll(tr.Body)
	require.NoError(t, err)
	assert.Equal(t, "llo", string(body))

	names, err = c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"notes.txt", "notes_v1.txt"}, names)

	farewell, err := c.End(ctx)
	require.NoError(t, err)
	assert.Equal(t, protocol.ReplyFarewell, farewell)

	_, err = c.List(ctx)
	require.ErrorIs(t, err, ErrClosed)
}

func TestClient_UnreadBodyIsDiscardedBeforeNextCommand(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	upload(t, c, "big.bin", strings.Repeat("z", 10_000))

	_, err := c.Reveal(ctx, "big.bin", 0)
	require.NoError(t, err)

	names, err := c.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"big.bin"}, names)
}

func TestClient_Refusals(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	_, err := c.Reveal(ctx, "ghost.txt", 0)
	require.ErrorIs(t, err, common.ErrorNotFound)

	_, err = c.Upload(ctx, "bad.txt", 5, digest.Bytes([]byte("hello")), strings.NewReader("HELLO"))
	require.ErrorIs(t, err, common.ErrorIntegrity)

	_, err = c.Upload(ctx, "bad.txt", 5, "nothex", strings.NewReader("hello"))
	require.ErrorIs(t, err, common.ErrorIntegrity)

	_, err = c.Upload(ctx, "../bad.txt", 5, digest.Bytes([]byte("hello")), strings.NewReader("hello"))
	require.ErrorIs(t, err, ErrRejected)

	_, err = c.Upload(ctx, "short.txt", 5, digest.Bytes([]byte("hello")), strings.NewReader("hi"))
	require.Error(t, err)
}

func TestClient_ContextCancelAbortsRead(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	go func() {
		conn, err := l.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		_ = protocol.WriteBlock(conn, protocol.Greeting)
		// Never answer.
		_, _ = io.Copy(io.Discard, conn)
	}()

	c := dial(t, l.Addr().String())
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err = c.List(ctx)
	require.Error(t, err)
	var ne net.Error
	require.True(t, errors.As(err, &ne) && ne.Timeout(), "want timeout, got %v", err)
}

func TestUploadFile(t *testing.T) {
	addr, repo := startServer(t)
	c := dial(t, addr)

	path := filepath.Join(t.TempDir(), "chart.bin")
	content := bytes.Repeat([]byte{0, 1, 2, 3}, 1000)
	require.NoError(t, os.WriteFile(path, content, 0o600))

	var seenTotal int64
	stored, err := UploadFile(context.Background(), c, path, func(total, done int64, r io.Reader) io.Reader {
		seenTotal = total
		return r
	})
	require.NoError(t, err)
	assert.Equal(t, "chart.bin", stored)
	assert.Equal(t, int64(len(content)), seenTotal)

	got, err := os.ReadFile(filepath.Join(repo.Dir(), "chart.bin"))
	require.NoError(t, err)
	assert.Equal(t, content, got)

	_, err = UploadFile(context.Background(), c, filepath.Join(t.TempDir(), "missing"), nil)
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestDownloadFile_FreshAndResume(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	content := strings.Repeat("treasure-", 500)
	upload(t, c, "loot.txt", content)

	dir := t.TempDir()
	dest, err := DownloadFile(ctx, c, "loot.txt", dir, nil)
	require.NoError(t, err)
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))

	// Resume: a part file with the first 1000 bytes is already present.
	dir2 := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir2, "loot.txt"+PartSuffix), []byte(content[:1000]), 0o600))

	var done int64 = -1
	dest, err = DownloadFile(ctx, c, "loot.txt", dir2, func(total, d int64, r io.Reader) io.Reader {
		done = d
		return r
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1000), done)
	got, err = os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, content, string(got))
	_, err = os.Stat(filepath.Join(dir2, "loot.txt"+PartSuffix))
	assert.True(t, os.IsNotExist(err))
}

func TestDownloadFile_CorruptPartIsDeleted(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	ctx := context.Background()

	upload(t, c, "gem.txt", "emerald")

	dir := t.TempDir()
	part := filepath.Join(dir, "gem.txt"+PartSuffix)
	require.NoError(t, os.WriteFile(part, []byte("rub"), 0o600))

	_, err := DownloadFile(ctx, c, "gem.txt", dir, nil)
	require.ErrorIs(t, err, common.ErrorIntegrity)
	_, err = os.Stat(part)
	assert.True(t, os.IsNotExist(err))

	dest, err := DownloadFile(ctx, c, "gem.txt", dir, nil)
	require.NoError(t, err)
	got, _ := os.ReadFile(dest)
	assert.Equal(t, "emerald", string(got))
}

func TestDownloadFile_OversizedPartRestarts(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)

	upload(t, c, "tiny.txt", "abc")

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiny.txt"+PartSuffix), []byte("abcdefgh"), 0o600))

	dest, err := DownloadFile(context.Background(), c, "tiny.txt", dir, nil)
	require.NoError(t, err)
	got, _ := os.ReadFile(dest)
	assert.Equal(t, "abc", string(got))
}

func TestDownloadFile_Errors(t *testing.T) {
	addr, _ := startServer(t)
	c := dial(t, addr)
	dir := t.TempDir()

	_, err := DownloadFile(context.Background(), c, "../up.txt", dir, nil)
	require.ErrorIs(t, err, common.ErrorInvalidName)

	_, err = DownloadFile(context.Background(), c, "ghost.txt", dir, nil)
	require.ErrorIs(t, err, common.ErrorNotFound)
	_, err = os.Stat(filepath.Join(dir, "ghost.txt"+PartSuffix))
	assert.True(t, os.IsNotExist(err))
}

func TestReveal_ShortBody(t *testing.T) {
	server, clientConn := net.Pipe()
	defer server.Close()

	go func() {
		w := bufio.NewWriter(server)
		_ = protocol.WriteBlock(w, protocol.Greeting)
		_ = w.Flush()
		r := bufio.NewReader(server)
		_, _ = protocol.ReadLine(r, protocol.MaxLineLength)
		_ = protocol.WriteLine(w, protocol.Ready(10, digest.Bytes([]byte("0123456789"))))
		_, _ = w.WriteString("0123")
		_ = w.Flush()
		_ = server.Close()
	}()

	c, err := New(context.Background(), clientConn)
	require.NoError(t, err)
	defer c.Close()

	tr, err := c.Reveal(context.Background(), "x", 0)
	require.NoError(t, err)
	_, err = io.ReadAll(tr.Body)
	require.ErrorIs(t, err, common.ErrorShortTransfer)
}
