package job

import "errors"

// Job errors.
var (
	// ErrPoolRequired is returned when creating a manager or enqueuer
	// without a database pool.
	ErrPoolRequired = errors.New("job: pool is required")

	// ErrDispatcherRequired is returned by NewManager without a dispatcher.
	ErrDispatcherRequired = errors.New("job: dispatcher is required")

	// ErrPathRequired is returned when enqueueing a message without a path.
	ErrPathRequired = errors.New("job: dispatch path is required")

	// ErrInvalidPayload is returned when a payload cannot be encoded.
	ErrInvalidPayload = errors.New("job: invalid payload")

	// ErrAlreadyStarted is returned when attempting to start a manager
	// that is already running.
	ErrAlreadyStarted = errors.New("job: already started")

	// ErrNotStarted is returned when attempting to stop a manager
	// that is not running.
	ErrNotStarted = errors.New("job: not started")
)
