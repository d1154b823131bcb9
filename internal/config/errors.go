package config

import "errors"

var (
	// ErrUnknownConfigField classifies strict YAML parse failures caused by unknown keys.
	// Use errors.Is(err, ErrUnknownConfigField) instead of string matching.
	ErrUnknownConfigField = errors.New("unknown config field")

	// ErrMissingBaseTime is returned when a provider does not state how its
	// bare timestamps are to be read.
	ErrMissingBaseTime = errors.New("provider baseTime is required (local or utc)")
)
