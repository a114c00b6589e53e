package helper

import (
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ValidationError maps validator.v10 field errors into the standard 422 shape.
func ValidationError(c *fiber.Ctx, err error) error {
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return JsonError(c, fiber.StatusBadRequest, "invalid input")
	}

	fieldErrors := make(map[string][]string, len(ve))
	for _, fieldErr := range ve {
		fieldErrors[fieldErr.Field()] = append(fieldErrors[fieldErr.Field()], fieldErr.Tag())
	}
	return JsonValidationError(c, fieldErrors)
}
