package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/queue"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

type PostHandler struct {
	s        service.PostService
	ps       service.PublishService
	enqueuer queue.Enqueuer
}

// NewPostHandler builds the post routes. enqueuer may be nil, in which case
// async publishing is refused.
func NewPostHandler(s service.PostService, ps service.PublishService, enqueuer queue.Enqueuer) *PostHandler {
	return &PostHandler{
		s:        s,
		ps:       ps,
		enqueuer: enqueuer,
	}
}

func (h *PostHandler) CreatePost(c *fiber.Ctx) error {
	var req transfer.PostCreation
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.s.Create(c.Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(post)
}

func (h *PostHandler) ListPosts(c *fiber.Ctx) error {
	posts, err := h.s.List(c.Context(), c.Query("status"))
	if err != nil {
		return errorResponse(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}

	return c.Status(fiber.StatusOK).JSON(posts)
}

func (h *PostHandler) GetPost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	post, err := h.s.Get(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) UpdatePost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req transfer.PostUpdate
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.s.Update(c.Context(), id, req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *PostHandler) PostHistory(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	history, err := h.s.History(c.Context(), id)
	if err != nil {
		return errorResponse(c, err)
	}
	if history == nil {
		history = []*models.PostingHistory{}
	}

	return c.Status(fiber.StatusOK).JSON(history)
}

// PublishPost publishes immediately, or queues the publish when called with
// ?async=true and a queue is configured.
func (h *PostHandler) PublishPost(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	if c.QueryBool("async", false) {
		return h.enqueue(c, id)
	}

	mediaID, err := h.ps.PublishNow(c.Context(), id)
	if err != nil {
		slog.Warn("manual publish failed", "post_id", id, "operator", GetOperator(c), "err", err)
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(transfer.PublishResponse{
		PostID:  id,
		MediaID: mediaID,
		Status:  string(models.PostStatusPublished),
	})
}

func (h *PostHandler) enqueue(c *fiber.Ctx, id int64) error {
	if h.enqueuer == nil {
		return badRequest(c, "Async publishing requires REDIS_URI to be configured")
	}

	if _, err := h.s.Get(c.Context(), id); err != nil {
		return errorResponse(c, err)
	}

	if _, err := queue.EnqueuePublish(h.enqueuer, id); err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusAccepted).JSON(transfer.PublishResponse{
		PostID: id,
		Queued: true,
		Status: "queued",
	})
}
