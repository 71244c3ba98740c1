package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"

	"github.com/gatherly/server/internal/api/problem"
	"github.com/go-playground/validator/v10"
)

// newValidate builds a validator that reports field names from json tags,
// so validation errors line up with what the client actually sent.
func newValidate() *validator.Validate {
	validate := validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return validate
}

// decodeAndValidate decodes the JSON body into dst and validates it.
// Malformed JSON gets a 400; failed validation gets a 422 with per-field
// errors. Returns false when a response has already been written.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, validate *validator.Validate, dst any, env string) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request body", err, env)
		return false
	}

	if err := validate.Struct(dst); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			problem.WriteValidation(w, r, fieldErrors(validationErrs), env)
			return false
		}
		problem.Write(w, r, http.StatusBadRequest, problem.TypeValidation, "Invalid request", err, env)
		return false
	}
	return true
}

func fieldErrors(errs validator.ValidationErrors) map[string]interface{} {
	fields := make(map[string]interface{}, len(errs))
	for _, fieldErr := range errs {
		fields[fieldErr.Field()] = fieldMessage(fieldErr)
	}
	return fields
}

func fieldMessage(fieldErr validator.FieldError) string {
	switch fieldErr.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fieldErr.Param())
		}
		return fmt.Sprintf("must be at least %s", fieldErr.Param())
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fieldErr.Param())
		}
		return fmt.Sprintf("must be at most %s", fieldErr.Param())
	case "eqfield":
		return "must match " + strings.ToLower(fieldErr.Param())
	case "datetime":
		return "must use format " + fieldErr.Param()
	default:
		return "is invalid"
	}
}
