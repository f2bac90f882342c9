package job

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/riverqueue/river"
	"github.com/riverqueue/river/rivertype"

	"github.com/dmitrymomot/relay"
)

// dispatchWorker hands every dispatch job to the bridge.
//
// A ProcessingError with a 4xx status cancels the job: the handler
// rejected the payload and a retry would be rejected again. Every other
// failure is returned to River, which retries with backoff.
type dispatchWorker struct {
	river.WorkerDefaults[dispatchArgs]
	dispatcher relay.Dispatcher
	logger     *slog.Logger
}

func (w *dispatchWorker) Work(ctx context.Context, job *river.Job[dispatchArgs]) error {
	msg := job.Args.message(job.ID)

	w.logger.DebugContext(ctx, "dispatching job",
		slog.String("path", msg.Path),
		slog.Int64("job_id", job.ID),
		slog.Int("attempt", job.Attempt),
	)

	_, err := w.dispatcher.DispatchMessage(ctx, msg)
	if err == nil {
		return nil
	}

	if pe := relay.AsProcessingError(err); pe != nil && isClientError(pe.StatusCode()) {
		w.logger.WarnContext(ctx, "dispatch rejected, cancelling job",
			slog.String("path", msg.Path),
			slog.Int64("job_id", job.ID),
			slog.Int("status", pe.StatusCode()),
		)
		return river.JobCancel(err)
	}
	return err
}

func isClientError(status int) bool {
	return status >= http.StatusBadRequest && status < http.StatusInternalServerError
}

// errorHandler logs failed attempts and panics escaping the worker.
type errorHandler struct {
	logger *slog.Logger
}

func (h *errorHandler) HandleError(ctx context.Context, job *rivertype.JobRow, err error) *river.ErrorHandlerResult {
	h.logger.ErrorContext(ctx, "dispatch job failed",
		slog.Int64("job_id", job.ID),
		slog.String("kind", job.Kind),
		slog.Int("attempt", job.Attempt),
		slog.Int("max_attempts", job.MaxAttempts),
		slog.String("error", err.Error()),
	)
	return nil
}

func (h *errorHandler) HandlePanic(ctx context.Context, job *rivertype.JobRow, panicVal any, trace string) *river.ErrorHandlerResult {
	h.logger.ErrorContext(ctx, "dispatch job panicked",
		slog.Int64("job_id", job.ID),
		slog.String("kind", job.Kind),
		slog.Any("panic", panicVal),
		slog.String("stack", trace),
	)
	return nil
}
