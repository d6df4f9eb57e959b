package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

type HealthHandler struct {
	db        Pinger
	scheduler func() bool
}

// NewHealthHandler reports database reachability and whether the scheduler
// loop is running. scheduler may be nil.
func NewHealthHandler(db Pinger, scheduler func() bool) *HealthHandler {
	return &HealthHandler{db: db, scheduler: scheduler}
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
	defer cancel()

	running := h.scheduler != nil && h.scheduler()
	if err := h.db.PingContext(ctx); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"status":    "unavailable",
			"error":     err.Error(),
			"scheduler": running,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status":    "ok",
		"scheduler": running,
	})
}
