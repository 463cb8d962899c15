// Package validator wraps go-playground/validator with English messages.
package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// Validator validates tagged structs
type Validator interface {
	Struct(s any) error
	StructCtx(ctx context.Context, s any) error
	Var(field any, tag string) error
}

// Validate is the shared instance
var Validate Validator = New()

// Option configures a validator
type Option func(*validatorImpl)

// WithTagName sets the struct tag read for rules, "validate" by default
func WithTagName(name string) Option {
	return func(v *validatorImpl) {
		v.validate.SetTagName(name)
	}
}

type validatorImpl struct {
	validate *validator.Validate
	trans    ut.Translator
}

// New creates a validator reporting fields by their json name
func New(opts ...Option) Validator {
	v := &validatorImpl{validate: validator.New(validator.WithRequiredStructEnabled())}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	locale := en.New()
	v.trans, _ = ut.New(locale, locale).GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(v.validate, v.trans)

	for _, opt := range opts {
		opt(v)
	}
	return v
}

func (v *validatorImpl) Struct(s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.Struct(s))
}

func (v *validatorImpl) StructCtx(ctx context.Context, s any) error {
	if s == nil {
		return errors.New("validation target cannot be nil")
	}
	return v.translate(v.validate.StructCtx(ctx, s))
}

func (v *validatorImpl) Var(field any, tag string) error {
	return v.translate(v.validate.Var(field, tag))
}

func (v *validatorImpl) translate(err error) error {
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}

	out := &ValidationErrors{fields: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		out.fields = append(out.fields, FieldError{
			Field:     fe.Field(),
			Namespace: fe.Namespace(),
			Tag:       fe.Tag(),
			Value:     fe.Value(),
			Message:   fe.Translate(v.trans),
		})
	}
	return out
}
