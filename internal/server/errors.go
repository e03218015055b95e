package server

import "errors"

// ErrNoHandler is returned by Run when a listener is started without a
// ConnectionHandler assigned.
var ErrNoHandler = errors.New("no connection handler configured")
