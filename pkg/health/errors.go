package health

import "errors"

var (
	// ErrCheckFailed is joined into Report.Err when one or more checks fail.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout is reported for a check that outlived the probe timeout.
	ErrCheckTimeout = errors.New("health: check timeout")
)
