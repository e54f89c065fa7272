package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postflow/postflow/pkg/utils"
	"github.com/postflow/postflow/scheduler/usecase"
)

type Health struct {
	Service *usecase.SchedulingUsecase
	Version string
}

func InitRestHealth(app fiber.Router, service *usecase.SchedulingUsecase, version string) Health {
	handler := Health{Service: service, Version: version}
	app.Get("/health/status", handler.GetStatus)

	return handler
}

func (h *Health) GetStatus(c *fiber.Ctx) error {
	inFlight, err := h.Service.CountPending(c.UserContext())
	if err != nil {
		return c.Status(500).JSON(utils.ResponseData{
			Status:  500,
			Code:    "INTERNAL_SERVER_ERROR",
			Message: err.Error(),
		})
	}
	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Health status retrieved",
		Results: map[string]any{
			"version":                h.Version,
			"in_flight_publications": inFlight,
		},
	})
}
