package handlers

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/comphility/backend/internal/apperr"
)

var validate = validator.New()

// bindAndValidate decodes the request body into req and runs its validation
// tags. The first failed rule becomes the client-facing message.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apperr.Validation("Invalid request body")
	}
	return validateStruct(req)
}

func validateStruct(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			e := verrs[0]
			return apperr.Validation(fmt.Sprintf("Field '%s' failed on the '%s' rule", e.Field(), e.Tag()))
		}
		return apperr.Validation("Validation failed")
	}
	return nil
}

func paramID(c echo.Context, name string) (uint, error) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, apperr.Validation("Invalid id")
	}
	return uint(id), nil
}

func queryIntDefault(c echo.Context, name string, def int) int {
	raw := c.QueryParam(name)
	if raw == "" {
		return def
	}
	if v, err := strconv.Atoi(raw); err == nil {
		return v
	}
	return def
}
