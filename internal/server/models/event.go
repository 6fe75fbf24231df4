// Package models defines server-side records shared between the activity
// log and its persistent store.
package models

import "time"

// EventKind classifies an activity log entry.
type EventKind string

const (
	EventConnect      EventKind = "connect"
	EventDisconnect   EventKind = "disconnect"
	EventUpload       EventKind = "upload"
	EventUploadFailed EventKind = "upload_failed"
	EventDownload     EventKind = "download"
	EventError        EventKind = "error"
)

// Event is one activity log entry. Message is the free-text line written
// to the log file; the other fields are structured copies for the store.
type Event struct {
	ID         int64
	OccurredAt time.Time
	Kind       EventKind
	SessionID  string
	RemoteAddr string
	FileName   string
	Size       int64
	Offset     int64
	Message    string
}
