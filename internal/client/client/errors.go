package client

import "errors"

var (
	ErrUnavailable = errors.New("server unavailable")
	ErrRejected    = errors.New("request rejected by server")
	ErrClosed      = errors.New("connection closed")
)
