// Copyright (C) 2019-2025, Lux Industries, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// Package validation checks bound call arguments against the constraint
// tags declared in parameter metadata.
//
// Constraints use go-playground/validator tag syntax ("required",
// "gte=0,lte=100", "omitempty,email"). A wire value the caller did not send
// fails every constraint unless the tag starts with an omit tag (omitempty,
// omitnil or omitzero). Injected parameters are never checked.
package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/luxfi/direct/metadata"
	"github.com/luxfi/direct/router"
)

// typeTag marks a value the constraint could not be applied to.
const typeTag = "type"

var (
	// ErrInvalidArguments matches every *Error returned by Validate.
	ErrInvalidArguments = errors.New("validation: invalid arguments")
	// ErrBadConstraint reports a constraint tag the validator cannot parse.
	ErrBadConstraint = errors.New("validation: bad constraint")
)

// optional tags let an absent value pass.
var optionalPrefixes = []string{"omitempty", "omitnil", "omitzero"}

func isOptional(constraints string) bool {
	for _, prefix := range optionalPrefixes {
		if strings.HasPrefix(constraints, prefix) {
			return true
		}
	}
	return false
}

// Violation is one failed constraint.
type Violation struct {
	Parameter string `json:"parameter"`
	Tag       string `json:"tag"`
	Param     string `json:"param,omitempty"`
	Message   string `json:"message"`
}

// Error lists every violation found in one call, in parameter order.
type Error struct {
	Violations []Violation
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Violations))
	for i, v := range e.Violations {
		msgs[i] = v.Parameter + ": " + v.Message
	}
	return fmt.Sprintf("%s: %s", ErrInvalidArguments, strings.Join(msgs, "; "))
}

func (e *Error) Is(target error) bool { return target == ErrInvalidArguments }

// Details returns the violation messages keyed by parameter name.
func (e *Error) Details() map[string]any {
	out := make(map[string]any, len(e.Violations))
	for _, v := range e.Violations {
		out[v.Parameter] = v.Message
	}
	return out
}

// Validator checks arguments. It is safe for concurrent use.
type Validator struct {
	validate *validator.Validate
}

// Option configures a Validator.
type Option func(*Validator) error

// WithValidate uses an existing validator instance, for example one with
// shared custom rules.
func WithValidate(v *validator.Validate) Option {
	return func(val *Validator) error {
		if v == nil {
			return errors.New("validation: nil validator")
		}
		val.validate = v
		return nil
	}
}

// WithRule registers a custom constraint tag.
func WithRule(tag string, fn validator.Func) Option {
	return func(val *Validator) error {
		return val.validate.RegisterValidation(tag, fn)
	}
}

// New returns a Validator.
func New(opts ...Option) (*Validator, error) {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
	for _, opt := range opts {
		if err := opt(v); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// Validate checks args, as bound for method, against their constraints.
// It returns nil, an *Error, or an error wrapping ErrBadConstraint. A value
// of a kind its constraint cannot check is a "type" violation.
func (v *Validator) Validate(method *metadata.MethodMetadata, args router.Arguments) error {
	if method == nil {
		return nil
	}
	var violations []Violation
	for i, arg := range args {
		if i >= method.NumParameters() {
			break
		}
		p := method.Parameter(i)
		if p.Injected() || p.Constraints == "" {
			continue
		}

		if !arg.Present {
			if isOptional(p.Constraints) {
				continue
			}
			violations = append(violations, Violation{
				Parameter: p.Name,
				Tag:       "required",
				Message:   "required",
			})
			continue
		}

		errs, err := v.check(arg.Value, p.Constraints)
		if err != nil {
			if _, tagErr := v.check(nil, p.Constraints); tagErr != nil {
				return fmt.Errorf("%w: parameter %q of %q: %v", ErrBadConstraint, p.Name, method.Name(), tagErr)
			}
			violations = append(violations, Violation{
				Parameter: p.Name,
				Tag:       typeTag,
				Message:   "has the wrong type",
			})
			continue
		}
		for _, fe := range errs {
			violations = append(violations, Violation{
				Parameter: p.Name,
				Tag:       fe.Tag(),
				Param:     fe.Param(),
				Message:   formatFieldError(fe),
			})
		}
	}
	if len(violations) == 0 {
		return nil
	}
	return &Error{Violations: violations}
}

// CheckConstraints reports the first constraint tag of method that the
// validator cannot parse. Use it at startup so bad tags never reach a call.
func (v *Validator) CheckConstraints(method *metadata.MethodMetadata) error {
	for _, p := range method.Parameters() {
		if p.Injected() || p.Constraints == "" {
			continue
		}
		if _, err := v.check(nil, p.Constraints); err != nil {
			return fmt.Errorf("%w: parameter %q of %q: %v", ErrBadConstraint, p.Name, method.Name(), err)
		}
	}
	return nil
}

// CheckRegistry runs CheckConstraints over every method in reg.
func (v *Validator) CheckRegistry(reg *metadata.Registry) error {
	var errs []error
	for _, class := range reg.Classes() {
		action, ok := reg.MetadataForClass(class)
		if !ok {
			continue
		}
		for _, m := range action.Methods() {
			if err := v.CheckConstraints(m); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", class, err))
			}
		}
	}
	return errors.Join(errs...)
}

// check runs one tag. validator panics on unknown tags and on values of a
// kind the tag cannot handle; that panic is returned as err.
func (v *Validator) check(value any, tag string) (errs validator.ValidationErrors, err error) {
	defer func() {
		if r := recover(); r != nil {
			errs, err = nil, fmt.Errorf("%v", r)
		}
	}()

	verr := v.validate.Var(value, tag)
	if verr == nil {
		return nil, nil
	}
	if errors.As(verr, &errs) {
		return errs, nil
	}
	return nil, verr
}

func formatFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "len":
		return fmt.Sprintf("must have length %s", fe.Param())
	case "eq":
		return fmt.Sprintf("must equal %s", fe.Param())
	case "ne":
		return fmt.Sprintf("must not equal %s", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lt":
		return fmt.Sprintf("must be less than %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		if fe.Param() != "" {
			return fmt.Sprintf("failed %s=%s validation", fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
