package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/velvetqueue/internal/models"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

type AssetHandler struct {
	s service.AssetService
}

func NewAssetHandler(s service.AssetService) *AssetHandler {
	return &AssetHandler{s: s}
}

func (h *AssetHandler) RegisterAsset(c *fiber.Ctx) error {
	var req transfer.AssetCreation
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}

	asset, err := h.s.Register(c.Context(), req)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

func (h *AssetHandler) ListAssets(c *fiber.Ctx) error {
	assets, err := h.s.List(c.Context())
	if err != nil {
		return errorResponse(c, err)
	}
	if assets == nil {
		assets = []*models.MediaAsset{}
	}
	return c.Status(fiber.StatusOK).JSON(assets)
}
