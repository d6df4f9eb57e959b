package queue

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPublisher struct {
	ids []int64
	err error
}

func (s *stubPublisher) PublishNow(_ context.Context, id int64) (string, error) {
	s.ids = append(s.ids, id)
	if s.err != nil {
		return "", s.err
	}
	return "M1", nil
}

type stubEnqueuer struct {
	tasks []*asynq.Task
	opts  [][]asynq.Option
}

func (s *stubEnqueuer) Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	s.tasks = append(s.tasks, task)
	s.opts = append(s.opts, opts)
	return &asynq.TaskInfo{ID: "t1", Queue: "default"}, nil
}

func TestEnqueuePublish(t *testing.T) {
	client := &stubEnqueuer{}

	id, err := EnqueuePublish(client, 7)
	require.NoError(t, err)
	assert.Equal(t, "t1", id)

	require.Len(t, client.tasks, 1)
	assert.Equal(t, TaskTypePublishPost, client.tasks[0].Type())

	var payload PublishPostPayload
	require.NoError(t, json.Unmarshal(client.tasks[0].Payload(), &payload))
	assert.Equal(t, int64(7), payload.PostID)
}

func TestHandlePublishPostTask(t *testing.T) {
	pub := &stubPublisher{}
	q := NewQueue(pub)

	task, err := NewPublishTask(7)
	require.NoError(t, err)
	require.NoError(t, q.HandlePublishPostTask(context.Background(), task))
	assert.Equal(t, []int64{7}, pub.ids)
}

func TestHandlePublishPostTask_NoRetry(t *testing.T) {
	pub := &stubPublisher{err: errors.New("Instagram access token has expired")}
	q := NewQueue(pub)

	task, err := NewPublishTask(7)
	require.NoError(t, err)

	err = q.HandlePublishPostTask(context.Background(), task)
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.Contains(t, err.Error(), "access token has expired")

	err = q.HandlePublishPostTask(context.Background(), asynq.NewTask(TaskTypePublishPost, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}
