package activity

import (
	"fmt"

	"github.com/dmitrijs2005/treasurehunt/internal/server/models"
)

// The constructors below produce the events the server emits, with the
// message texts operators grep the log for.

func Connected(session, remote string) models.Event {
	return models.Event{
		Kind:       models.EventConnect,
		SessionID:  session,
		RemoteAddr: remote,
		Message:    fmt.Sprintf("New connection from %s", remote),
	}
}

func Disconnected(session, remote string, graceful bool) models.Event {
	msg := fmt.Sprintf("Client %s disconnected.", remote)
	if graceful {
		msg = fmt.Sprintf("Client %s disconnected gracefully.", remote)
	}
	return models.Event{
		Kind:       models.EventDisconnect,
		SessionID:  session,
		RemoteAddr: remote,
		Message:    msg,
	}
}

func Uploaded(session, remote, name string, size int64) models.Event {
	return models.Event{
		Kind:       models.EventUpload,
		SessionID:  session,
		RemoteAddr: remote,
		FileName:   name,
		Size:       size,
		Message:    fmt.Sprintf("File '%s' uploaded successfully.", name),
	}
}

func UploadFailed(session, remote, name string, size int64, reason string) models.Event {
	return models.Event{
		Kind:       models.EventUploadFailed,
		SessionID:  session,
		RemoteAddr: remote,
		FileName:   name,
		Size:       size,
		Message:    fmt.Sprintf("File '%s' upload failed (%s).", name, reason),
	}
}

func Downloaded(session, remote, name string, size, offset int64) models.Event {
	return models.Event{
		Kind:       models.EventDownload,
		SessionID:  session,
		RemoteAddr: remote,
		FileName:   name,
		Size:       size,
		Offset:     offset,
		Message:    fmt.Sprintf("File '%s' downloaded (offset %d).", name, offset),
	}
}

func Failed(session, remote string, err error) models.Event {
	return models.Event{
		Kind:       models.EventError,
		SessionID:  session,
		RemoteAddr: remote,
		Message:    fmt.Sprintf("Error with %s: %v", remote, err),
	}
}

// ServerError is logged for listener-level failures.
func ServerError(err error) models.Event {
	return models.Event{
		Kind:    models.EventError,
		Message: fmt.Sprintf("Server error: %v", err),
	}
}
