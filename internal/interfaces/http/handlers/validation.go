package handlers

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// requestValidator checks request DTOs at the HTTP boundary.
type requestValidator struct {
	validate *validator.Validate
}

func newRequestValidator() *requestValidator {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return &requestValidator{validate: v}
}

// fieldViolation is the first failing field of a DTO.
type fieldViolation struct {
	Field string
	Tag   string
	Param string
}

func (f fieldViolation) Error() string {
	switch f.Tag {
	case "required", "notblank":
		return f.Field + " is required"
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", f.Field, f.Param)
	default:
		return fmt.Sprintf("%s failed %s validation", f.Field, f.Tag)
	}
}

// Struct returns nil or the first fieldViolation of dto.
func (v *requestValidator) Struct(dto interface{}) error {
	err := v.validate.Struct(dto)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if stderrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return fieldViolation{Field: strings.ToLower(fe.Field()), Tag: fe.Tag(), Param: fe.Param()}
	}
	return err
}
