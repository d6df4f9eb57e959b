package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandlePublishPostTask(ctx context.Context, task *asynq.Task) error {
	var payload PublishPostPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return fmt.Errorf("invalid publish payload: %v: %w", err, asynq.SkipRetry)
	}

	mediaID, err := q.ps.PublishNow(ctx, payload.PostID)
	if err != nil {
		slog.Warn("queued publish failed", "post_id", payload.PostID, "err", err)
		return fmt.Errorf("publish post %d: %v: %w", payload.PostID, err, asynq.SkipRetry)
	}

	slog.Info("queued publish done", "post_id", payload.PostID, "media_id", mediaID)
	return nil
}

// NewServeMux routes every task type this service handles.
func (q *Queue) NewServeMux() *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskTypePublishPost, q.HandlePublishPostTask)
	return mux
}
