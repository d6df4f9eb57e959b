package queue

import (
	"github.com/maheshrc27/velvetqueue/internal/service"
)

// Queue runs publish tasks taken off asynq through the same orchestrator the
// scheduler uses.
type Queue struct {
	ps service.PublishService
}

func NewQueue(ps service.PublishService) *Queue {
	return &Queue{ps: ps}
}

const TaskTypePublishPost = "post:publish"

type PublishPostPayload struct {
	PostID int64 `json:"post_id"`
}
