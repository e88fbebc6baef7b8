package gateway

import "errors"

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = errors.New("malformed command")
	ErrBroadcastFull    = errors.New("broadcast channel full")
)
