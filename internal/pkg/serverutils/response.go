package serverutils

import (
	"fmt"

	"riverai-be/internal/apperror"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// ValidateRequest runs struct tag validation and converts failures into
// client errors.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		return apperror.InvalidInput(fmt.Sprintf("validation failed: %v", err))
	}
	return nil
}
