package wificfg

import "errors"

// Status-code space shared with driver adapters. Adapters map their native
// failure codes onto these where a match exists; anything else is passed
// through untouched.
var (
	ErrOutOfMemory   = errors.New("out of memory")
	ErrInvalidMode   = errors.New("invalid mode")
	ErrInvalidConfig = errors.New("invalid config")
	ErrNotConnected  = errors.New("not connected")
	ErrFailure       = errors.New("wifi failure")
)

var errNoDriver = errors.New("nil wifi driver")

type joinError struct {
	errs []error
}

func (e *joinError) Error() string {
	var b []byte
	for i, err := range e.errs {
		if i > 0 {
			b = append(b, '\n')
		}
		b = append(b, err.Error()...)
	}
	return string(b)
}

func (e *joinError) Unwrap() []error { return e.errs }

// errjoin returns an error wrapping errs, discarding nil values. Returns nil
// if every value in errs is nil.
func errjoin(errs ...error) error {
	n := 0
	for _, err := range errs {
		if err != nil {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	e := &joinError{errs: make([]error, 0, n)}
	for _, err := range errs {
		if err != nil {
			e.errs = append(e.errs, err)
		}
	}
	return e
}
