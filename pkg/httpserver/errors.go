package httpserver

import "errors"

var (
	// ErrStart wraps listener and startup failures surfaced by Run.
	ErrStart = errors.New("http server start failed")
	// ErrShutdown wraps failures of the graceful stop sequence.
	ErrShutdown = errors.New("http server did not stop cleanly")
)
