package rest

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/postflow/postflow/pkg/utils"
	"github.com/postflow/postflow/scheduler/usecase"
	"github.com/postflow/postflow/validations"
)

type Publication struct {
	Service *usecase.SchedulingUsecase
}

func InitRestPublication(app fiber.Router, service *usecase.SchedulingUsecase) Publication {
	rest := Publication{Service: service}
	app.Post("/publications", rest.Schedule)
	app.Get("/publications", rest.List)
	app.Get("/publications/:id", rest.Get)
	app.Put("/publications/:id/reschedule", rest.Reschedule)
	app.Delete("/publications/:id", rest.Cancel)

	return rest
}

func (handler *Publication) Schedule(c *fiber.Ctx) error {
	var request usecase.ScheduleRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidateSchedulePost(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	pub, err := handler.Service.SchedulePost(c.UserContext(), request)
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publication scheduled",
		Results: pub,
	})
}

func (handler *Publication) List(c *fiber.Ctx) error {
	accountID := c.Query("account_id")
	pubs, err := handler.Service.ListPublications(c.UserContext(), accountID)
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publications retrieved",
		Results: pubs,
	})
}

func (handler *Publication) Get(c *fiber.Ctx) error {
	pub, err := handler.Service.GetPublication(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publication retrieved",
		Results: pub,
	})
}

type rescheduleRequest struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

func (handler *Publication) Reschedule(c *fiber.Ctx) error {
	var request rescheduleRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	pub, err := handler.Service.Reschedule(c.UserContext(), c.Params("id"), request.ScheduledFor)
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publication rescheduled",
		Results: pub,
	})
}

func (handler *Publication) Cancel(c *fiber.Ctx) error {
	err := handler.Service.Cancel(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Publication cancelled",
		Results: nil,
	})
}
