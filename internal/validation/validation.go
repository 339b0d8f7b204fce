// Package validation checks submitted forms before any backend call is made.
//
// Rules come from `validate` struct tags. Per-rule messages come from a `msg`
// tag of the form "required=Name is required;min=Name is too short"; a rule
// with no message falls back to "*=..." and then to a generic text.
package validation

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the wire format of event dates.
const DateLayout = "2006-01-02"

var (
	mobileRe   = regexp.MustCompile(`^\+?[\d\s\-()]{10,}$`)
	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	nonDigitRe = regexp.MustCompile(`\D`)
)

// Validator validates form structs and reports per-field messages.
type Validator struct {
	v   *validator.Validate
	now func() time.Time
}

// New creates a Validator. now is the clock used by the notpast rule; nil means time.Now.
func New(now func() time.Time) *Validator {
	if now == nil {
		now = time.Now
	}
	val := &Validator{v: validator.New(), now: now}
	val.v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "form"} {
			name := strings.Split(f.Tag.Get(tag), ",")[0]
			if name != "" && name != "-" {
				return name
			}
		}
		return f.Name
	})
	_ = val.v.RegisterValidation("mobile", func(fl validator.FieldLevel) bool {
		return mobileRe.MatchString(fl.Field().String())
	})
	_ = val.v.RegisterValidation("mindigits", func(fl validator.FieldLevel) bool {
		digits := nonDigitRe.ReplaceAllString(fl.Field().String(), "")
		return len(digits) >= 6
	})
	_ = val.v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = val.v.RegisterValidation("notpast", val.notPast)
	return val
}

// notPast accepts an empty value or a YYYY-MM-DD date that is today or later.
func (val *Validator) notPast(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return true
	}
	now := val.now()
	d, err := time.ParseInLocation(DateLayout, s, now.Location())
	if err != nil {
		return false
	}
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return !d.Before(today)
}

// Now returns the validator's clock reading.
func (val *Validator) Now() time.Time { return val.now() }

// Struct validates s and returns field name -> message, or nil when s is valid.
func (val *Validator) Struct(s interface{}) map[string]string {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"_": err.Error()}
	}
	t := reflect.TypeOf(s)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		if _, seen := out[fe.Field()]; seen {
			continue
		}
		out[fe.Field()] = message(t, fe)
	}
	return out
}

func message(t reflect.Type, fe validator.FieldError) string {
	if sf, ok := t.FieldByName(fe.StructField()); ok {
		if m := lookup(sf.Tag.Get("msg"), fe.Tag()); m != "" {
			return m
		}
	}
	if fe.Tag() == "required" {
		return fe.Field() + " is required"
	}
	return fe.Field() + " is invalid"
}

func lookup(tag, rule string) string {
	var fallback string
	for _, part := range strings.Split(tag, ";") {
		k, v, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		switch strings.TrimSpace(k) {
		case rule:
			return v
		case "*":
			fallback = v
		}
	}
	return fallback
}

// Merge adds extra messages into fields without overwriting, returning the result.
// A nil or empty result means the form is valid.
func Merge(fields map[string]string, extra map[string]string) map[string]string {
	for k, v := range extra {
		if fields == nil {
			fields = make(map[string]string)
		}
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return fields
}
