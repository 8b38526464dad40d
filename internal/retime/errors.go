package retime

import "errors"

// Failure kinds surfaced by the engine. Every error the engine returns wraps
// one of these; callers discriminate with errors.Is.
var (
	// ErrInvalidInput marks bad parameters: reduction factor below one,
	// malformed overrides, broken timeline configs. No partial work is
	// performed when it is returned.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDecode marks a stream open, seek or read failure. It is fatal when
	// the source cannot be opened at all and non-fatal per frame during a
	// render, where the entry is skipped.
	ErrDecode = errors.New("decode error")

	// ErrEncode marks an output stream create or write failure. It always
	// aborts the whole render.
	ErrEncode = errors.New("encode error")

	// ErrNotFound marks a missing config file or source object.
	ErrNotFound = errors.New("not found")
)
