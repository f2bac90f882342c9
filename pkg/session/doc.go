// Package session provides the session entry attached to synthetic requests
// and the stores that carry sessions from one dispatch to the next.
//
// A session is created lazily by the request that first asks for it. It has a
// generated identifier, an attribute map, creation and last-access timestamps
// and an inactivity window (30 minutes by default). Invalidate clears the
// attributes and makes every later attribute access fail with ErrInvalidated:
//
//	sess := session.New()
//	_ = sess.Set("user_id", "u-42")
//	_ = sess.Invalidate()
//	_, err := sess.Get("user_id") // errors.Is(err, session.ErrInvalidated)
//
// # Stores
//
// MemoryStore keeps sessions in process memory, RedisStore keeps them in Redis
// as JSON. Values read back from Redis follow encoding/json typing, so numbers
// come back as float64.
package session
