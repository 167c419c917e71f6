package ml

import "github.com/pkg/errors"

var (
	ErrDimensionMismatch = errors.New("dimension mismatch")
	ErrConfiguration     = errors.New("configuration error")
	ErrConcurrency       = errors.New("concurrency failure")
)
