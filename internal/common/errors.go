// Package common defines sentinel errors shared by the protocol, the
// repository and the server layers. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorInvalidName   = errors.New("invalid file name")
	ErrorNotReserved   = errors.New("reservation already released")
	ErrorStorageClosed = errors.New("storage is not available")

	// Transfer errors.
	ErrorIntegrity     = errors.New("digest mismatch")
	ErrorShortTransfer = errors.New("peer closed before declared size was received")

	// Protocol errors (malformed verb or arity).
	ErrorProtocol     = errors.New("protocol error")
	ErrorLineTooLong  = errors.New("command line too long")
	ErrorInvalidSize  = errors.New("invalid size")
	ErrorInvalidHash  = errors.New("invalid digest")
	ErrorUnknownReply = errors.New("unexpected server reply")
)
