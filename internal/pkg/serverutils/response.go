package serverutils

import (
	"errors"

	"nova-advisor-be/internal/service"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// ValidateRequest runs struct-tag validation on a request DTO.
func ValidateRequest(req interface{}) error {
	return validate.Struct(req)
}

func SuccessResponse(message string, data interface{}) fiber.Map {
	return fiber.Map{
		"success": true,
		"code":    200,
		"message": message,
		"data":    data,
	}
}

// ErrorHandlerMiddleware converts errors bubbled out of controllers into the
// standard envelope. Known domain errors get their proper status; anything
// else is a 500 with the message passed through.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		status := fiber.StatusInternalServerError
		body := fiber.Map{
			"success": false,
			"message": err.Error(),
		}

		var guardrailErr *service.GuardrailRejectedError
		var validationErrs validator.ValidationErrors
		var fiberErr *fiber.Error

		switch {
		case errors.As(err, &guardrailErr):
			status = fiber.StatusBadRequest
			body["code"] = "GUARDRAIL_REJECTED"
			body["rejected"] = true
			body["reason"] = guardrailErr.Reason
		case errors.Is(err, service.ErrSessionNotFound):
			status = fiber.StatusNotFound
			body["code"] = "SESSION_NOT_FOUND"
		case errors.Is(err, service.ErrUserNotFound):
			status = fiber.StatusNotFound
			body["code"] = "USER_NOT_FOUND"
		case errors.Is(err, service.ErrInvalidPassword):
			status = fiber.StatusUnauthorized
			body["code"] = "INVALID_PASSWORD"
		case errors.Is(err, service.ErrUserExists):
			status = fiber.StatusConflict
			body["code"] = "USER_EXISTS"
		case errors.Is(err, service.ErrInvalidUsername):
			status = fiber.StatusBadRequest
			body["code"] = "INVALID_USERNAME"
		case errors.Is(err, service.ErrPasswordMismatch):
			status = fiber.StatusBadRequest
			body["code"] = "PASSWORD_MISMATCH"
		case errors.As(err, &validationErrs):
			status = fiber.StatusBadRequest
			body["code"] = "VALIDATION_ERROR"
		case errors.As(err, &fiberErr):
			status = fiberErr.Code
		}

		body["status"] = status
		return ctx.Status(status).JSON(body)
	}
}
