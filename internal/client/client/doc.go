// Package client speaks the treasure hunt protocol from the client side.
//
// # Overview
//
// Client wraps one TCP connection: Dial reads the greeting, then Upload,
// Reveal, List and End each send one command and read its response. A
// Client is not safe for concurrent use; the protocol is strictly one
// command at a time per connection.
//
// UploadFile and DownloadFile add the file handling an interactive client
// needs on top: hashing before upload, resuming a download from a local
// ".part" file and verifying the result against the announced digest.
//
// # Error Handling
//
// Server refusals map to sentinel errors matched with errors.Is:
// common.ErrorNotFound, common.ErrorIntegrity, ErrRejected. Dial failures
// wrap ErrUnavailable.
package client
