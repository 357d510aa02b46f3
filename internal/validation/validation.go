// Package validation checks decoded request bodies.
package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kichiro01/ToPick-api/internal/model"
)

var (
	once     sync.Once
	validate *validator.Validate
)

func instance() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(f reflect.StructField) string {
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
	return validate
}

// Struct validates v against its `validate` tags. Failures come back as a
// validation *model.Error naming the first offending field.
func Struct(v any) error {
	err := instance().Struct(v)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return fmt.Errorf("validate request: %w", err)
	}
	return model.NewValidation("%s", describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fieldPath(fe.Namespace())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s characters", field, fe.Param())
	case "len":
		return fmt.Sprintf("%s must be exactly %s characters", field, fe.Param())
	case "gt", "gte":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "alphanum":
		return field + " must contain only letters and digits"
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}

// fieldPath drops the top-level struct name from a validator namespace.
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}
	return ns
}

// ParseTopic decodes a topic payload. It must be an object whose only key is
// "topic", holding an array of strings (possibly empty).
func ParseTopic(raw json.RawMessage) (model.Topic, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return model.Topic{}, model.NewValidation("topic is required")
	}
	if bytes.Equal(trimmed, []byte("null")) {
		return model.Topic{}, model.NewValidation("topic must not be null")
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &obj); err != nil {
		return model.Topic{}, model.NewValidation("topic must be an object")
	}
	value, ok := obj["topic"]
	if !ok || len(obj) != 1 {
		return model.Topic{}, model.NewValidation(`topic must have exactly one key named "topic"`)
	}
	value = bytes.TrimSpace(value)
	if bytes.Equal(value, []byte("null")) {
		return model.Topic{}, model.NewValidation("topic.topic must be a list")
	}

	var items []string
	if err := json.Unmarshal(value, &items); err != nil {
		return model.Topic{}, model.NewValidation("topic.topic must be a list of strings")
	}
	return model.NewTopic(items...), nil
}

// OptionalTopic is ParseTopic for fields that may be left out, in which case
// the empty topic is used.
func OptionalTopic(raw json.RawMessage) (model.Topic, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return model.NewTopic(), nil
	}
	return ParseTopic(raw)
}
