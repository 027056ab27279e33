package model

import (
	"photokeep/internal/constant"

	"github.com/gofiber/fiber/v2"
)

// ValidationError is the structured client-visible failure. Code is one of
// the constant.ERR_* values; Param names the offending field or parameter.
type ValidationError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Param   string `json:"param"`
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPStatus maps the error code to the transport status used at the API
// boundary. Translation happens there only; inner layers carry the code.
func (e *ValidationError) HTTPStatus() int {
	switch e.Code {
	case constant.ERR_NOT_FOUND_ERROR:
		return fiber.StatusNotFound
	case constant.ERR_FORBIDDEN_ERROR:
		return fiber.StatusForbidden
	case constant.ERR_UNAUTHORIZED_ERROR:
		return fiber.StatusUnauthorized
	default:
		return fiber.StatusBadRequest
	}
}
