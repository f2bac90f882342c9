// Package redisqueue feeds a relay bridge from a Redis list.
//
// A Producer RPUSHes JSON envelopes ({"path": ..., "payload": ...}); a
// Consumer BLPOPs them and calls the dispatcher. Items that are not
// envelopes are dispatched whole to the consumer's default path, so plain
// producers can push raw payloads.
//
//	consumer, err := redisqueue.NewConsumer(client, bridge, "relay:inbox",
//	    redisqueue.WithDefaultPath("/inbox"),
//	    redisqueue.WithDeadLetter("relay:inbox:failed"),
//	)
//	err = relay.Run(relay.WithSource("inbox", consumer))
package redisqueue
