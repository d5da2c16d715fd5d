package ml

import "errors"

var (
	// ErrNotTrained is returned by every inference method called before Train.
	ErrNotTrained = errors.New("model not trained: run train first")
	// ErrPlayerNotFound is returned when a player query resolves to no record.
	ErrPlayerNotFound = errors.New("no such player")
	// ErrNoFeatures is returned when a table has no usable feature columns.
	ErrNoFeatures = errors.New("no numeric feature columns available")
)
