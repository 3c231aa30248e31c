package handler

import (
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

type askRequest struct {
	Question string `json:"question" validate:"required,max=2000"`
}

type actionItemRequest struct {
	Task     string `json:"task" validate:"required,max=500"`
	DueDate  string `json:"dueDate" validate:"omitempty,max=64"`
	Priority string `json:"priority" validate:"omitempty,max=16"`
}

type createReminderRequest struct {
	DocumentID  *int64  `json:"documentId" validate:"omitempty,gt=0"`
	Title       string  `json:"title" validate:"required,max=500"`
	Description *string `json:"description" validate:"omitempty,max=4000"`
	DueDate     string  `json:"dueDate" validate:"required"`
	Priority    string  `json:"priority" validate:"omitempty,oneof=high medium low"`
}

type updateReminderRequest struct {
	Completed *bool   `json:"completed"`
	Priority  *string `json:"priority" validate:"omitempty,oneof=high medium low"`
	DueDate   *string `json:"dueDate"`
}

// bindJSON decodes and validates the body. The returned message is safe to show.
func bindJSON(c *fiber.Ctx, dst any) (string, bool) {
	if err := c.BodyParser(dst); err != nil {
		return "request body must be valid JSON", false
	}
	if err := validate.Struct(dst); err != nil {
		if verrs, ok := err.(validator.ValidationErrors); ok && len(verrs) > 0 {
			return validationMessage(verrs[0]), false
		}
		return "invalid request body", false
	}
	return "", true
}

func validationMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "oneof":
		return field + " must be one of " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "max":
		return field + " is too long"
	case "gt":
		return field + " must be positive"
	default:
		return field + " is invalid"
	}
}

// parseDate accepts YYYY-MM-DD or RFC 3339.
func parseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.DateOnly, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// parseID reads a positive integer :id route parameter.
func parseID(c *fiber.Ctx) (int64, bool) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
