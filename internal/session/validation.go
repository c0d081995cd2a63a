package session

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	entranslations "github.com/go-playground/validator/v10/translations/en"
	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// ErrValidation is wrapped by every ValidationFailure.
var ErrValidation = errors.New("validation failed")

// ValidationFailure lists the draft fields that may not be persisted, keyed
// by JSON field name.
type ValidationFailure struct {
	Fields map[string]string
}

func (f *ValidationFailure) Error() string {
	keys := make([]string, 0, len(f.Fields))
	for k := range f.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, f.Fields[k])
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(msgs, "; "))
}

func (f *ValidationFailure) Unwrap() error {
	return ErrValidation
}

// Validator checks a draft against the constraints a record must meet before
// it is sent to the backend.
type Validator struct {
	validate *validator.Validate
	trans    ut.Translator
}

// NewValidator builds a Validator with English messages.
func NewValidator() (*Validator, error) {
	v := validator.New()

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	if err := v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		s, ok := fl.Field().Interface().(models.Status)
		return ok && s.Valid()
	}); err != nil {
		return nil, fmt.Errorf("failed to register status validation: %w", err)
	}
	if err := v.RegisterValidation("category", func(fl validator.FieldLevel) bool {
		c, ok := fl.Field().Interface().(models.Category)
		return ok && c.Valid()
	}); err != nil {
		return nil, fmt.Errorf("failed to register category validation: %w", err)
	}

	locale := en.New()
	uni := ut.New(locale, locale)
	trans, _ := uni.GetTranslator("en")

	if err := entranslations.RegisterDefaultTranslations(v, trans); err != nil {
		return nil, fmt.Errorf("failed to register translations: %w", err)
	}
	if err := registerClosedSet(v, trans, "status", statusNames()); err != nil {
		return nil, err
	}
	if err := registerClosedSet(v, trans, "category", categoryNames()); err != nil {
		return nil, err
	}

	return &Validator{validate: v, trans: trans}, nil
}

// MustNewValidator is NewValidator that panics on error.
func MustNewValidator() *Validator {
	v, err := NewValidator()
	if err != nil {
		panic(err)
	}
	return v
}

// Check returns nil or a *ValidationFailure for record.
func (v *Validator) Check(record models.ConnectionRecord) error {
	err := v.validate.Struct(record)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return fmt.Errorf("%w: %w", ErrValidation, err)
	}

	failure := &ValidationFailure{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		failure.Fields[fe.Field()] = fe.Translate(v.trans)
	}
	return failure
}

func registerClosedSet(v *validator.Validate, trans ut.Translator, tag string, allowed []string) error {
	msg := "{0} must be one of: " + strings.Join(allowed, ", ")
	err := v.RegisterTranslation(tag, trans,
		func(t ut.Translator) error {
			return t.Add(tag, msg, true)
		},
		func(t ut.Translator, fe validator.FieldError) string {
			s, err := t.T(tag, fe.Field())
			if err != nil {
				return fe.Error()
			}
			return s
		},
	)
	if err != nil {
		return fmt.Errorf("failed to register %s translation: %w", tag, err)
	}
	return nil
}

func statusNames() []string {
	names := make([]string, 0, 4)
	for _, s := range models.Statuses() {
		names = append(names, string(s))
	}
	return names
}

func categoryNames() []string {
	names := make([]string, 0, 2)
	for _, c := range models.Categories() {
		names = append(names, string(c))
	}
	return names
}
