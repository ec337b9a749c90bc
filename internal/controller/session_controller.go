package controller

import (
	"nova-advisor-be/internal/dto"
	"nova-advisor-be/internal/pkg/serverutils"
	"nova-advisor-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type ISessionController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	Create(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Messages(ctx *fiber.Ctx) error
	Clear(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	DeleteAll(ctx *fiber.Ctx) error
}

type sessionController struct {
	service service.ISessionService
}

func NewSessionController(service service.ISessionService) ISessionController {
	return &sessionController{service: service}
}

func (c *sessionController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	h := r.Group("/sessions", authRequired)
	h.Post("/", c.Create)
	h.Get("/", c.List)
	h.Get("/:id/messages", c.Messages)
	h.Post("/:id/clear", c.Clear)
	h.Delete("/:id", c.Delete)
	h.Delete("/", c.DeleteAll)
}

func (c *sessionController) Create(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	// Empty bodies are fine, the name is optional.
	_ = ctx.BodyParser(&req)
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.service.CreateSession(ctx.Context(), currentUserId(ctx), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sesión creada", res))
}

func (c *sessionController) List(ctx *fiber.Ctx) error {
	res, err := c.service.GetAllSessions(ctx.Context(), currentUserId(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *sessionController) Messages(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return service.ErrSessionNotFound
	}
	limit := ctx.QueryInt("limit")

	res, err := c.service.GetMessages(ctx.Context(), currentUserId(ctx), sessionId, limit)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Success", res))
}

func (c *sessionController) Clear(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return service.ErrSessionNotFound
	}

	if err := c.service.ClearSession(ctx.Context(), currentUserId(ctx), sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sesión vaciada", nil))
}

func (c *sessionController) Delete(ctx *fiber.Ctx) error {
	sessionId, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return service.ErrSessionNotFound
	}

	if err := c.service.DeleteSession(ctx.Context(), currentUserId(ctx), sessionId); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sesión eliminada", nil))
}

func (c *sessionController) DeleteAll(ctx *fiber.Ctx) error {
	if err := c.service.DeleteAllSessions(ctx.Context(), currentUserId(ctx)); err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Sesiones eliminadas", nil))
}
