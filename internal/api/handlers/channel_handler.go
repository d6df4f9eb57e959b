package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

type ChannelHandler struct {
	s service.ChannelService
}

func NewChannelHandler(s service.ChannelService) *ChannelHandler {
	return &ChannelHandler{s: s}
}

// ChannelView is a channel as returned by the API, without its credentials.
type ChannelView struct {
	ID             int64  `json:"id"`
	Platform       string `json:"platform"`
	Name           string `json:"name"`
	IsActive       bool   `json:"is_active"`
	HasCredentials bool   `json:"has_credentials"`
}

func newChannelView(ch *models.Channel) ChannelView {
	return ChannelView{
		ID:             ch.ID,
		Platform:       ch.Platform,
		Name:           ch.Name,
		IsActive:       ch.IsActive,
		HasCredentials: !ch.Credentials.Empty(),
	}
}

func (h *ChannelHandler) ListChannels(c *fiber.Ctx) error {
	channels, err := h.s.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}

	views := make([]ChannelView, 0, len(channels))
	for _, ch := range channels {
		views = append(views, newChannelView(ch))
	}
	return c.Status(fiber.StatusOK).JSON(views)
}

func (h *ChannelHandler) Connect(c *fiber.Ctx) error {
	var req transfer.ConnectRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	channel, err := h.s.Connect(c.Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"message": "Channel connected successfully",
		"channel": newChannelView(channel),
	})
}
