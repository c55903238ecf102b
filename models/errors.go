package models

import "errors"

// Sentinel errors shared across the pipeline. Compare with errors.Is.
var (
	ErrSourceUnavailable  = errors.New("data source unavailable")
	ErrInvalidSchema      = errors.New("data source is missing required columns")
	ErrEmptyDataset       = errors.New("no usable deal records after cleaning")
	ErrUnrecognizedIntent = errors.New("query outside scope of sales intelligence")
	ErrNarrativeService   = errors.New("narrative service failed")
)
