package slcan

import "errors"

// Domain errors for the slcan transport.
var (
	ErrConnectionFailed = errors.New("slcan: connection to interface failed")
	ErrNotConnected     = errors.New("slcan: not connected")
	ErrClosed           = errors.New("slcan: transport closed")
	ErrMalformedLine    = errors.New("slcan: malformed line")
)
