package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"reflect"
	"strconv"
	"strings"
	"sync"

	"realestate/server/internal/apperr"
	"realestate/server/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var validationOnce sync.Once

// registerValidation makes validation errors report JSON field names.
func registerValidation() {
	validationOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return field.Name
			}
			return name
		})
	})
}

// fail writes the error envelope for err. Internal errors are logged and
// reported generically.
func (h *Handler) fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	if kind == apperr.KindInternal {
		h.logger.WithError(err).WithField("request_id", c.GetString(requestIDKey)).Error("Request failed")
	}
	c.AbortWithStatusJSON(kind.Status(), gin.H{"ok": false, "error": apperr.Message(err)})
}

type formDecoder interface {
	ApplyForm(lookup models.FormLookup) error
}

func isMultipart(c *gin.Context) bool {
	return strings.HasPrefix(c.ContentType(), "multipart/form-data")
}

// bind decodes a JSON or multipart body into req and validates it. An empty
// JSON body binds as an empty request.
func (h *Handler) bind(c *gin.Context, req any) error {
	if isMultipart(c) {
		form, err := c.MultipartForm()
		if err != nil {
			return apperr.Validation("invalid multipart form")
		}
		dropBlankNumbers(form, req)
		if err := c.ShouldBindWith(req, binding.FormMultipart); err != nil {
			return apperr.Validation("%s", bindingMessage(err))
		}
		if fd, ok := req.(formDecoder); ok {
			if err := fd.ApplyForm(c.GetPostForm); err != nil {
				return apperr.Validation("%s", err.Error())
			}
		}
		return nil
	}

	if err := c.ShouldBindJSON(req); err != nil {
		if !errors.Is(err, io.EOF) {
			return apperr.Validation("%s", bindingMessage(err))
		}
		if err := binding.Validator.ValidateStruct(req); err != nil {
			return apperr.Validation("%s", bindingMessage(err))
		}
	}
	return nil
}

// dropBlankNumbers removes empty form values bound to non-string fields, so
// a blank numeric input reads as absent rather than zero.
func dropBlankNumbers(form *multipart.Form, req any) {
	t := reflect.TypeOf(req)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return
	}
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		key := strings.SplitN(field.Tag.Get("form"), ",", 2)[0]
		if key == "" || key == "-" {
			continue
		}
		ft := field.Type
		if ft.Kind() == reflect.Pointer {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.String {
			continue
		}
		if values := form.Value[key]; len(values) > 0 && strings.TrimSpace(values[0]) == "" {
			delete(form.Value, key)
		}
	}
}

func bindingMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		msgs := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return fmt.Sprintf("%s has an invalid type", typeErr.Field)
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return "malformed JSON body"
	}
	var numErr *strconv.NumError
	if errors.As(err, &numErr) {
		return fmt.Sprintf("invalid number %q", numErr.Num)
	}
	return err.Error()
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " required"
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must not be empty", field)
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, strings.ReplaceAll(fe.Param(), " ", ", "))
	case "latitude", "longitude":
		return fmt.Sprintf("%s must be a valid %s", field, fe.Tag())
	default:
		return field + " is invalid"
	}
}

// pathID parses a numeric path parameter. Anything else is NotFound.
func pathID(c *gin.Context, name, notFound string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, apperr.NotFound("%s", notFound)
	}
	return uint(id), nil
}
