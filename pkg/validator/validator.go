// Package validator validates structs with go-playground/validator tags and
// turns failures into human readable, per-field messages.
//
// Field keys come from the first of the form, json, koanf or yaml tags. The
// optional label tag names the field in messages:
//
//	type SendMailRequest struct {
//	    From string `form:"from" label:"Sender" validate:"required,email"`
//	}
//
// A missing From yields ValidationError{Field: "from", Message: "Sender is required"}.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Validator is safe for concurrent use.
type Validator struct {
	v *validator.Validate
}

// New creates a Validator with required-struct checks enabled.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(fieldKey)
	return &Validator{v: v}
}

// RegisterValidation adds a custom tag.
func (v *Validator) RegisterValidation(tag string, fn validator.Func) error {
	return v.v.RegisterValidation(tag, fn)
}

// Struct validates s. It returns nil, a ValidationErrors, or another error
// when s cannot be validated at all (e.g. it is not a struct).
func (v *Validator) Struct(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	root := reflect.TypeOf(s)
	out := make(ValidationErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, ValidationError{
			Field:   fe.Field(),
			Tag:     fe.Tag(),
			Message: labelFor(root, fe) + " " + describe(fe),
		})
	}

	return out
}

var (
	defaultValidator *Validator
	defaultOnce      sync.Once
)

// Struct validates s with a shared Validator.
func Struct(s any) error {
	defaultOnce.Do(func() { defaultValidator = New() })
	return defaultValidator.Struct(s)
}

func fieldKey(f reflect.StructField) string {
	for _, tag := range []string{"form", "json", "koanf", "yaml"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// labelFor walks the struct namespace of fe to find the label tag of the
// failing field. Without a label the humanized field key is used.
func labelFor(root reflect.Type, fe validator.FieldError) string {
	parts := strings.Split(fe.StructNamespace(), ".")
	if len(parts) < 2 {
		return humanize(fe.Field())
	}

	t := root
	var (
		field  reflect.StructField
		suffix string
	)
	for _, part := range parts[1:] {
		name, index, indexed := strings.Cut(part, "[")
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		if t.Kind() != reflect.Struct {
			return humanize(fe.Field())
		}

		f, ok := t.FieldByName(name)
		if !ok {
			return humanize(fe.Field())
		}
		field, t, suffix = f, f.Type, ""
		if indexed {
			t = t.Elem()
			suffix = "[" + index
		}
	}

	label := field.Tag.Get("label")
	if label == "" {
		label = humanize(fieldKey(field))
	}
	return label + suffix
}

func humanize(key string) string {
	key = strings.NewReplacer("_", " ", "-", " ").Replace(key)
	if key == "" {
		return key
	}
	return strings.ToUpper(key[:1]) + key[1:]
}

func describe(fe validator.FieldError) string {
	kind := fe.Kind()

	switch fe.Tag() {
	case "required", "required_if", "required_with":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url", "http_url":
		return "must be a valid URL"
	case "hostname_port":
		return "must be a host:port address"
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "min", "gte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		default:
			return "must be at least " + fe.Param()
		}
	case "gt":
		return "must be greater than " + fe.Param()
	case "max", "lte":
		switch kind {
		case reflect.String:
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		case reflect.Slice, reflect.Array, reflect.Map:
			return fmt.Sprintf("must not contain more than %s item(s)", fe.Param())
		default:
			return "must not exceed " + fe.Param()
		}
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("is invalid (%s=%s)", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("is invalid (%s)", fe.Tag())
	}
}
