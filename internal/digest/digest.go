// Package digest computes SHA-256 content digests incrementally, so that
// arbitrarily large streams can be hashed while they are being written or
// read.
package digest

import (
	"crypto/sha256"
	"encoding/hex"
	"hash"
	"io"
	"strings"
)

// HexLen is the length of a hex-encoded SHA-256 digest.
const HexLen = sha256.Size * 2

// Hasher accumulates a running SHA-256 over everything written to it and
// counts the bytes seen.
type Hasher struct {
	h hash.Hash
	n int64
}

func New() *Hasher {
	return &Hasher{h: sha256.New()}
}

func (d *Hasher) Write(p []byte) (int, error) {
	n, err := d.h.Write(p)
	d.n += int64(n)
	return n, err
}

// Size reports how many bytes have been hashed so far.
func (d *Hasher) Size() int64 { return d.n }

// Hex returns the lowercase hex digest of the bytes written so far.
func (d *Hasher) Hex() string {
	return hex.EncodeToString(d.h.Sum(nil))
}

// Tee returns a writer that forwards to w and hashes the same bytes.
func (d *Hasher) Tee(w io.Writer) io.Writer {
	return io.MultiWriter(w, d)
}

// Reader hashes r to EOF using buf as the copy buffer (nil allocates one).
func Reader(r io.Reader, buf []byte) (string, int64, error) {
	d := New()
	if _, err := io.CopyBuffer(d, r, buf); err != nil {
		return "", d.n, err
	}
	return d.Hex(), d.n, nil
}

// Bytes returns the hex digest of b.
func Bytes(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// Valid reports whether s looks like a hex SHA-256 digest.
func Valid(s string) bool {
	if len(s) != HexLen {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}

// Equal compares two hex digests, ignoring case.
func Equal(a, b string) bool {
	return strings.EqualFold(a, b)
}
