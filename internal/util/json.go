package util

import (
	"errors"

	"photokeep/internal/constant"
	"photokeep/internal/model"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ReadRequestBody(ctx *fiber.Ctx, result interface{}) error {
	err := ctx.BodyParser(&result)
	if err != nil {
		return err
	}
	return nil
}

func SendSuccessResponseNoContent(ctx *fiber.Ctx) error {
	return ctx.SendStatus(fiber.StatusNoContent)
}

func SendSuccessResponseWithData(ctx *fiber.Ctx, data interface{}) error {
	err := ctx.Status(fiber.StatusOK).JSON(data)
	if err != nil {
		return err
	}

	return nil
}

// SendErrorResponse writes a structured error body with the status derived
// from the error code. Non-ValidationError values fall back to 400.
func SendErrorResponse(ctx *fiber.Ctx, err error) error {
	var validationErr *model.ValidationError
	status := fiber.StatusBadRequest
	if errors.As(err, &validationErr) {
		status = validationErr.HTTPStatus()
	} else {
		validationErr = &model.ValidationError{
			Code:    constant.ERR_VALIDATION_CODE,
			Message: err.Error(),
		}
	}

	return ctx.Status(status).JSON(fiber.Map{
		"error": validationErr,
	})
}

func SendErrorResponseInternalServer(ctx *fiber.Ctx, log *zap.Logger, err error) error {
	log.Error("internal server error occured", zap.Error(err))
	return ctx.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fiber.Map{
			"code":    constant.ERR_INTERNAL_SERVER_ERROR_CODE,
			"message": constant.ERR_INTERNAL_SERVER_ERROR_MESSAGE,
		},
	})
}
