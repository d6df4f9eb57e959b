package queue

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Enqueuer is the part of *asynq.Client used to queue tasks.
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// NewPublishTask builds a manual publish task. Failed publishes are recorded
// on the post and retried by an operator, so asynq must not retry them.
func NewPublishTask(postID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(PublishPostPayload{PostID: postID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypePublishPost, payload, asynq.MaxRetry(0)), nil
}

func EnqueuePublish(client Enqueuer, postID int64) (string, error) {
	task, err := NewPublishTask(postID)
	if err != nil {
		return "", err
	}

	info, err := client.Enqueue(task)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue publish for post %d: %w", postID, err)
	}

	slog.Info("publish task enqueued", "post_id", postID, "task_id", info.ID, "queue", info.Queue)
	return info.ID, nil
}
