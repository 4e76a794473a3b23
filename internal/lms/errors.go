package lms

import "errors"

// Structural decode failures. Any of these aborts the whole parse.
var (
	ErrBadMagic            = errors.New("bad magic")
	ErrBadByteOrder        = errors.New("bad byte order mark")
	ErrUnsupportedVersion  = errors.New("unsupported version")
	ErrUnsupportedEncoding = errors.New("unsupported text encoding")
	ErrTruncatedSection    = errors.New("truncated section")
)
