package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postflow/postflow/pkg/utils"
	"github.com/postflow/postflow/scheduler/usecase"
)

type Optimal struct {
	Service *usecase.SchedulingUsecase
}

func InitRestOptimal(app fiber.Router, service *usecase.SchedulingUsecase) Optimal {
	rest := Optimal{Service: service}
	app.Post("/accounts/:accountId/optimal-times/calculate", rest.Calculate)
	app.Get("/accounts/:accountId/optimal-times", rest.Get)

	return rest
}

func (handler *Optimal) Calculate(c *fiber.Ctx) error {
	times, err := handler.Service.CalculateOptimalTimes(c.UserContext(), c.Params("accountId"))
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Optimal times calculated",
		Results: times,
	})
}

func (handler *Optimal) Get(c *fiber.Ctx) error {
	times, err := handler.Service.GetOptimalTimes(c.UserContext(), c.Params("accountId"))
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Optimal times retrieved",
		Results: times,
	})
}
