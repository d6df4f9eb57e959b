package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

// ApprovalHandler exposes the status transitions a post goes through before
// the scheduler picks it up.
type ApprovalHandler struct {
	s service.PostService
}

func NewApprovalHandler(s service.PostService) *ApprovalHandler {
	return &ApprovalHandler{s: s}
}

func (h *ApprovalHandler) SubmitForApproval(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req transfer.SubmitRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.s.SubmitForApproval(c.Context(), id, req.Note)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *ApprovalHandler) Approve(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req transfer.ApproveRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.ApprovedBy == "" {
		req.ApprovedBy = GetOperator(c)
	}
	autoSchedule := req.AutoSchedule != nil && *req.AutoSchedule

	post, err := h.s.Approve(c.Context(), id, req.ApprovedBy, autoSchedule, req.ScheduledTime)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *ApprovalHandler) Reject(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req transfer.RejectRequest
	if err := parseBody(c, &req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.RejectedBy == "" {
		req.RejectedBy = GetOperator(c)
	}

	post, err := h.s.Reject(c.Context(), id, req.RejectedBy, req.Reason)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *ApprovalHandler) Schedule(c *fiber.Ctx) error {
	id, err := parseID(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	var req transfer.ScheduleRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	post, err := h.s.Schedule(c.Context(), id, req.ScheduledTime, req.Status)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(post)
}

func (h *ApprovalHandler) ListPending(c *fiber.Ctx) error {
	channelID := c.QueryInt("channel_id", 0)
	if channelID < 0 {
		return badRequest(c, "Invalid channel id")
	}

	posts, err := h.s.ListPending(c.Context(), int64(channelID))
	if err != nil {
		return errorResponse(c, err)
	}
	if posts == nil {
		posts = []*models.Post{}
	}
	return c.Status(fiber.StatusOK).JSON(posts)
}
