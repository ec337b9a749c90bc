package controller

import (
	"mime/multipart"

	"nova-advisor-be/internal/dto"
	"nova-advisor-be/internal/pkg/serverutils"
	"nova-advisor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IChatController interface {
	RegisterRoutes(r fiber.Router, authRequired fiber.Handler)
	Query(ctx *fiber.Ctx) error
}

type chatController struct {
	service service.IChatService
}

func NewChatController(service service.IChatService) IChatController {
	return &chatController{service: service}
}

func (c *chatController) RegisterRoutes(r fiber.Router, authRequired fiber.Handler) {
	r.Post("/query", authRequired, c.Query)
}

// Query accepts a multipart form: query text, optional session_id, optional
// files.
func (c *chatController) Query(ctx *fiber.Ctx) error {
	var req dto.QueryRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	var files []*multipart.FileHeader
	if form, err := ctx.MultipartForm(); err == nil && form != nil {
		files = form.File["files"]
	}

	res, err := c.service.Query(ctx.Context(), currentUserId(ctx), &req, files)
	if err != nil {
		return err
	}
	return ctx.JSON(res)
}
