package redisqueue

import "errors"

var (
	// ErrClientRequired is returned when no Redis client is supplied.
	ErrClientRequired = errors.New("redisqueue: redis client is required")

	// ErrDispatcherRequired is returned by NewConsumer without a dispatcher.
	ErrDispatcherRequired = errors.New("redisqueue: dispatcher is required")

	// ErrKeyRequired is returned when the list key is empty.
	ErrKeyRequired = errors.New("redisqueue: list key is required")

	// ErrPathRequired is returned for messages without a path when the
	// consumer has no default path.
	ErrPathRequired = errors.New("redisqueue: dispatch path is required")

	// ErrInvalidPayload is returned when a payload cannot be encoded.
	ErrInvalidPayload = errors.New("redisqueue: invalid payload")
)
