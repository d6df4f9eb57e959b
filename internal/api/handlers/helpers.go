package handlers

import (
	"errors"
	"log/slog"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/maheshrc27/velvetqueue/internal/service"
	"github.com/maheshrc27/velvetqueue/internal/transfer"
)

// OperatorKey is the Locals key the auth middleware stores the caller under.
const OperatorKey = "operator"

func GetOperator(c *fiber.Ctx) string {
	operator, _ := c.Locals(OperatorKey).(string)
	return operator
}

func parseID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid post id")
	}
	return id, nil
}

// parseBody decodes an optional JSON body. An empty body leaves out untouched.
func parseBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	return c.BodyParser(out)
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// StatusFor maps a service error to the HTTP status it is reported with.
func StatusFor(err error) int {
	switch service.KindOf(err) {
	case service.KindValidation:
		switch {
		case service.IsNotFound(err):
			return fiber.StatusNotFound
		case errors.Is(err, service.ErrInvalidTransition):
			return fiber.StatusConflict
		}
		return fiber.StatusBadRequest
	case service.KindConfiguration, service.KindAuth:
		return fiber.StatusBadRequest
	case service.KindNetwork, service.KindUpstream:
		return fiber.StatusBadGateway
	}
	return fiber.StatusInternalServerError
}

func errorResponse(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= fiber.StatusInternalServerError {
		slog.Error("request failed", "method", c.Method(), "path", c.Path(), "err", err)
	}
	return c.Status(status).JSON(transfer.ErrorResponse{
		Error:    err.Error(),
		Guidance: service.Guidance(err),
	})
}
