package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/grvbrk/vidcatalog/internal/models"
)

// ValidationError carries one human readable message per failed rule.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, ", ")
}

func (e *ValidationError) Unwrap() error {
	return models.ErrInvalidArgument
}

var fieldLabels = map[string]string{
	"title":       "Title",
	"url":         "URL",
	"speaker":     "Speaker name",
	"description": "Description",
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

func problemFor(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return "Missing required field: " + field
	case "http_url":
		return "Invalid URL format"
	case "max":
		label := fieldLabels[field]
		if label == "" {
			label = field
		}
		return fmt.Sprintf("%s too long (max %s characters)", label, fe.Param())
	}
	return fmt.Sprintf("Invalid value for %s", field)
}

func normalizeInput(in *models.VideoInput) {
	in.Title = strings.TrimSpace(in.Title)
	in.URL = strings.TrimSpace(in.URL)
	in.Speaker = strings.TrimSpace(in.Speaker)
	in.Tags = in.Tags.Clean()
}

// validateInput trims the input in place and checks it against its struct tags.
func (s *CatalogService) validateInput(in *models.VideoInput) error {
	normalizeInput(in)

	err := s.validate.Struct(in)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("validate video: %w", err)
	}

	problems := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		problems = append(problems, problemFor(fe))
	}
	return &ValidationError{Problems: problems}
}
