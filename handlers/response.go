package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"trading-journal/apperr"
	"trading-journal/models"
)

var registerTagNames sync.Once

// useJSONFieldNames makes validator report fields by their json name.
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			if name == "" {
				return f.Name
			}
			return name
		})
	})
}

// writeError maps service errors onto status codes. Anything unexpected is
// logged and answered with a bare 500.
func writeError(c *gin.Context, logger *zap.Logger, where string, err error) {
	if v, ok := apperr.AsValidation(err); ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation failed", "fields": v.Fields})
		return
	}
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, apperr.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
	case errors.Is(err, apperr.ErrAuthenticationRequired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
	case errors.Is(err, apperr.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": "already exists"})
	default:
		logger.Error("internal_error", zap.String("where", where), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}

// decode binds a JSON body onto item and runs the model's own checks. An
// empty body decodes as an empty object.
func decode(raw []byte, item any) error {
	if len(strings.TrimSpace(string(raw))) == 0 {
		raw = []byte("{}")
	}
	v := &apperr.ValidationError{}
	if err := binding.JSON.BindBody(raw, item); err != nil {
		var ve validator.ValidationErrors
		if !errors.As(err, &ve) {
			return bindError(err)
		}
		for _, fe := range ve {
			v.Add(fe.Field(), fieldMessage(fe))
		}
	}
	if ch, ok := item.(models.Checker); ok {
		if err := ch.Check(); err != nil {
			more, ok := apperr.AsValidation(err)
			if !ok {
				return err
			}
			for field, msgs := range more.Fields {
				for _, msg := range msgs {
					v.Add(field, msg)
				}
			}
		}
	}
	return v.Err()
}

// bindError turns a decoding failure into a validation error.
func bindError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		return apperr.Invalid(typeErr.Field, fmt.Sprintf("expected %s", typeErr.Type))
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return apperr.Invalid(apperr.NonFieldErrors, "malformed JSON")
	}
	return apperr.Invalid(apperr.NonFieldErrors, err.Error())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has no more than %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is less than or equal to %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("ensure this field has at least %s characters", fe.Param())
		}
		return fmt.Sprintf("ensure this value is greater than or equal to %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "email":
		return "enter a valid email address"
	default:
		return fmt.Sprintf("failed %q check", fe.Tag())
	}
}
