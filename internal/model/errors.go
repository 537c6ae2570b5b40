package model

import "errors"

var (
	// ErrInvalidGeometry is returned for unclosed, degenerate or self-intersecting rings.
	ErrInvalidGeometry = errors.New("invalid geometry")

	// ErrInvalidParameter is returned for a non-positive or non-finite minimum lot area.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrCRSMismatch is returned when regions with different coordinate reference tags are combined.
	ErrCRSMismatch = errors.New("coordinate reference mismatch")
)
