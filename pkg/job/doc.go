// Package job delivers payloads to a relay bridge through River, a
// Postgres-native job queue.
//
// Every job has the kind "relay:dispatch" and carries a dispatch path,
// the payload and optional headers and session ID. Workers hand each job
// to a relay.Dispatcher (usually *relay.Bridge). Failed dispatches are
// retried with River's backoff, except ProcessingErrors with a 4xx status,
// which cancel the job.
//
// # Enqueueing
//
//	enq, err := job.NewEnqueuer(pool)
//	err = enq.Enqueue(ctx, "/orders/created", order,
//	    job.InQueue("orders"),
//	    job.MaxAttempts(5),
//	)
//
// EnqueueTx inserts the job inside a pgx transaction so it only becomes
// visible when the transaction commits.
//
// # Processing
//
// Manager is a relay.Source:
//
//	m, err := job.NewManager(pool, bridge,
//	    job.WithQueue("orders", 10),
//	    job.WithScheduledDispatch("cleanup", "0 * * * *", "/sessions/cleanup", nil),
//	    job.WithLogger(log),
//	)
//	err = relay.Run(relay.WithSource("jobs", m))
//
// Jobs without an explicit dispatch ID use "job-<id>", so every retry of
// a job shares one journal entry.
//
// # Schema
//
// Migrate applies River's own migrations.
package job
