package tools

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/mark3labs/mcp-go/mcp"

	"weathermcp/internal/types"
)

// alertsArgs is the argument object of get-alerts.
type alertsArgs struct {
	State string `json:"state" validate:"required,len=2"`
}

// forecastArgs is the argument object of get-forecast. Pointers let
// "required" tell an omitted coordinate apart from 0.
type forecastArgs struct {
	Latitude  *float64 `json:"latitude" validate:"required,gte=-90,lte=90"`
	Longitude *float64 `json:"longitude" validate:"required,gte=-180,lte=180"`
}

// fieldCodes maps an argument name to the error code for an out-of-range value.
var fieldCodes = map[string]types.ErrorCode{
	"state":     types.ErrCodeValidationInvalidState,
	"latitude":  types.ErrCodeValidationInvalidLat,
	"longitude": types.ErrCodeValidationInvalidLon,
}

// newValidator returns a validator that reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// bindArgs decodes the call arguments into dst and validates them.
func bindArgs(v *validator.Validate, req mcp.CallToolRequest, dst any) error {
	if err := req.BindArguments(dst); err != nil {
		return types.NewAppError(types.ErrCodeValidationInvalidPayload, "arguments must be an object with the documented fields", err)
	}
	if err := v.Struct(dst); err != nil {
		return translateValidation(err)
	}
	return nil
}

// translateValidation converts the first validator failure into an AppError
// whose message is a plain sentence suitable for the calling agent.
func translateValidation(err error) *types.AppError {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return types.NewAppError(types.ErrCodeValidationInvalidPayload, "arguments could not be validated", err)
	}

	fe := verrs[0]
	field := fe.Field()

	if fe.Tag() == "required" {
		return types.NewAppError(
			types.ErrCodeValidationMissingField,
			fmt.Sprintf("%s is required", field),
			err,
		).WithDetails(map[string]any{"field": field})
	}

	code, ok := fieldCodes[field]
	if !ok {
		code = types.ErrCodeValidationInvalidPayload
	}

	var msg string
	switch fe.Tag() {
	case "len":
		msg = fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "gte":
		msg = fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		msg = fmt.Sprintf("%s must be at most %s", field, fe.Param())
	default:
		msg = fmt.Sprintf("%s is invalid", field)
	}

	return types.NewAppError(code, msg, err).WithDetails(map[string]any{
		"field": field,
		"value": fe.Value(),
	})
}
