package rest

import (
	"github.com/gofiber/fiber/v2"
	"github.com/postflow/postflow/pkg/utils"
	"github.com/postflow/postflow/scheduler/usecase"
	"github.com/postflow/postflow/validations"
)

type Queue struct {
	Service *usecase.SchedulingUsecase
}

func InitRestQueue(app fiber.Router, service *usecase.SchedulingUsecase) Queue {
	rest := Queue{Service: service}
	app.Post("/queues", rest.Create)
	app.Get("/queues/:id", rest.Get)
	app.Post("/queues/:id/posts", rest.AddPost)
	app.Post("/queues/:id/slots", rest.AddSlot)
	app.Delete("/queues/slots/:slotId", rest.RemoveSlot)

	return rest
}

func (handler *Queue) Create(c *fiber.Ctx) error {
	var request usecase.CreateQueueRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidateCreateQueue(c.UserContext(), request)
	utils.PanicIfNeeded(err)

	queue, err := handler.Service.CreateQueue(c.UserContext(), request)
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Queue created",
		Results: queue,
	})
}

func (handler *Queue) Get(c *fiber.Ctx) error {
	queue, err := handler.Service.GetQueue(c.UserContext(), c.Params("id"))
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Queue retrieved",
		Results: queue,
	})
}

type addPostRequest struct {
	PostID string `json:"post_id"`
}

func (handler *Queue) AddPost(c *fiber.Ctx) error {
	var request addPostRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	pub, err := handler.Service.AddToQueue(c.UserContext(), c.Params("id"), request.PostID)
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Post added to queue",
		Results: pub,
	})
}

type addSlotRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	Time      string `json:"time"`
}

func (handler *Queue) AddSlot(c *fiber.Ctx) error {
	var request addSlotRequest
	err := c.BodyParser(&request)
	utils.PanicIfNeeded(err)

	err = validations.ValidateSlot(c.UserContext(), request.DayOfWeek, request.Time)
	utils.PanicIfNeeded(err)

	slot, err := handler.Service.AddSlot(c.UserContext(), c.Params("id"), request.DayOfWeek, request.Time)
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Slot added",
		Results: slot,
	})
}

func (handler *Queue) RemoveSlot(c *fiber.Ctx) error {
	err := handler.Service.RemoveSlot(c.UserContext(), c.Params("slotId"))
	utils.PanicIfNeeded(apiError(err))

	return c.JSON(utils.ResponseData{
		Status:  200,
		Code:    "SUCCESS",
		Message: "Slot removed",
		Results: nil,
	})
}
