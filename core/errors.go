package core

import "github.com/pkg/errors"

// shutdown marks failures after which the process must not keep serving.
type shutdown struct {
	err error
}

// NewShutdownError wraps err so that the API server shuts down gracefully when it surfaces.
func NewShutdownError(err error) error {
	return &shutdown{err: err}
}

func (s *shutdown) Error() string { return "shutdown: " + s.err.Error() }

func (s *shutdown) Unwrap() error { return s.err }

func IsShutdown(err error) bool {
	var s *shutdown
	return errors.As(err, &s)
}
