package model

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// NewItem holds the fields submitted when reporting an item.
type NewItem struct {
	Name        string `form:"name" validate:"required,max=255"`
	Description string `form:"description" validate:"maxbytes=65535"`
	Contact     string `form:"contact" validate:"required,max=255"`
	Date        string `form:"date" validate:"required,datetime=2006-01-02"`
	Time        string `form:"time" validate:"omitempty,timeofday"`
	Location    string `form:"location" validate:"required,max=255"`
	Status      Status `form:"status" validate:"required,oneof=lost found"`

	// Image is set by the server after the attachment has been stored.
	Image string `form:"-" validate:"omitempty,startswith=/uploads/,max=255"`
}

// FieldError describes a single rejected field.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError is returned when a NewItem is missing required fields or
// carries values outside their allowed range.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Field+" "+f.Message)
	}
	return strings.Join(msgs, "; ")
}

// IsValidationError reports whether err wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "-" {
			return strings.ToLower(f.Name)
		}
		return name
	})
	if err := v.RegisterValidation("timeofday", func(fl validator.FieldLevel) bool {
		_, ok := parseTimeOfDay(fl.Field().String())
		return ok
	}); err != nil {
		panic(fmt.Sprintf("registering timeofday validation: %v", err))
	}
	// TEXT columns are limited in bytes, not characters.
	if err := v.RegisterValidation("maxbytes", func(fl validator.FieldLevel) bool {
		limit, err := strconv.Atoi(fl.Param())
		if err != nil {
			return false
		}
		return len(fl.Field().String()) <= limit
	}); err != nil {
		panic(fmt.Sprintf("registering maxbytes validation: %v", err))
	}
	return v
}

// Normalize trims whitespace, lowercases the status and rewrites the time of
// day as HH:MM:SS.
func (n *NewItem) Normalize() {
	n.Name = strings.TrimSpace(n.Name)
	n.Description = strings.TrimSpace(n.Description)
	n.Contact = strings.TrimSpace(n.Contact)
	n.Date = strings.TrimSpace(n.Date)
	n.Time = strings.TrimSpace(n.Time)
	n.Location = strings.TrimSpace(n.Location)
	n.Status = Status(strings.ToLower(strings.TrimSpace(string(n.Status))))

	if t, ok := parseTimeOfDay(n.Time); ok && n.Time != "" {
		n.Time = t
	}
}

// Validate checks required fields and enum values. It returns a
// *ValidationError describing every rejected field.
func (n *NewItem) Validate() error {
	err := validate.Struct(n)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("validating item: %w", err)
	}

	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Fields = append(ve.Fields, FieldError{Field: fe.Field(), Message: fieldMessage(fe)})
	}
	return ve
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "maxbytes":
		return "must be at most " + fe.Param() + " bytes"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		return "must be a date formatted YYYY-MM-DD"
	case "timeofday":
		return "must be a time formatted HH:MM"
	case "startswith":
		return "must start with " + fe.Param()
	default:
		return "is invalid"
	}
}

// parseTimeOfDay accepts HH:MM or HH:MM:SS and returns HH:MM:SS.
func parseTimeOfDay(s string) (string, bool) {
	if s == "" {
		return "", true
	}
	for _, layout := range []string{"15:04", "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("15:04:05"), true
		}
	}
	return "", false
}
