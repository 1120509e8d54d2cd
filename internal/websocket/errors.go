package websocket

import "errors"

var (
	ErrClientQueueFull     = errors.New("client message queue is full")
	ErrInvalidMessage      = errors.New("invalid message format")
	ErrHandshakeRejected   = errors.New("handshake rejected")
	ErrMissingStudy        = errors.New("handshake is missing the study id")
	ErrMissingUser         = errors.New("handshake is missing the user id")
	ErrClientNotConnecting = errors.New("client is not in the connecting state")
	ErrHubStopped          = errors.New("hub is stopped")
)
