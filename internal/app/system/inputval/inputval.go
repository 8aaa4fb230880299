// Package inputval validates request structs with struct tags and turns the
// result into caller-facing messages.
//
// Field names in messages come from the json tag, so a failure on
//
//	RollNo string `json:"rollNo" validate:"required,roll_no"`
//
// reads "Roll number must be in format 21011519-085." rather than
// mentioning the Go field name.
package inputval

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
	"github.com/intellipmo/intellipmo/internal/app/system/apierr"
	"github.com/intellipmo/intellipmo/internal/domain/models"
)

var (
	sessionYearRe = regexp.MustCompile(`^\d{4}-\d{4}$`)
	rollNoRe      = regexp.MustCompile(`^\d{8}-\d{3}$`)
)

var (
	once     sync.Once
	validate *validator.Validate
	trans    ut.Translator
)

func setup() {
	validate = validator.New()
	uni := ut.New(en.New(), en.New())
	trans, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(validate, trans)

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation("session_year", func(fl validator.FieldLevel) bool {
		return IsSessionYear(fl.Field().String())
	})
	_ = validate.RegisterValidation("roll_no", func(fl validator.FieldLevel) bool {
		return IsRollNo(fl.Field().String())
	})
	_ = validate.RegisterValidation("department", func(fl validator.FieldLevel) bool {
		return models.IsDepartment(fl.Field().String())
	})

	translate("required", "Missing or empty field: {0}.", true)
	translate("session_year", "{0} must be in format YYYY-YYYY (e.g. 2021-2025).", false)
	translate("roll_no", "Roll number must be in format 21011519-085.", false)
	translate("department", "{0} must be one of "+strings.Join(models.Departments, ", ")+".", false)
	translate("email", "Please enter a valid email address.", true)
}

func translate(tag, text string, override bool) {
	_ = validate.RegisterTranslation(tag, trans,
		func(t ut.Translator) error { return t.Add(tag, text, override) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// IsSessionYear reports whether s looks like "2021-2025".
func IsSessionYear(s string) bool { return sessionYearRe.MatchString(s) }

// IsRollNo reports whether s looks like "21011519-085".
func IsRollNo(s string) bool { return rollNoRe.MatchString(s) }

// FieldError is one violated rule.
type FieldError struct {
	Field   string
	Message string
}

// Result collects every violated rule of one struct, in field order.
type Result struct {
	Errors []FieldError
}

func (r Result) HasErrors() bool { return len(r.Errors) > 0 }

// First returns the first message, or "" when valid.
func (r Result) First() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return r.Errors[0].Message
}

// Messages returns all messages in field order.
func (r Result) Messages() []string {
	out := make([]string, 0, len(r.Errors))
	for _, e := range r.Errors {
		out = append(out, e.Message)
	}
	return out
}

// Err converts the result to an apierr validation failure, or nil.
func (r Result) Err() error {
	if !r.HasErrors() {
		return nil
	}
	return apierr.ErrInvalidInput.WithMessage(r.First()).WithFields(r.Messages())
}

// Validate checks v against its validate tags.
func Validate(v any) Result {
	once.Do(setup)
	err := validate.Struct(v)
	if err == nil {
		return Result{}
	}
	ves, ok := err.(validator.ValidationErrors)
	if !ok {
		return Result{Errors: []FieldError{{Message: err.Error()}}}
	}
	res := Result{Errors: make([]FieldError, 0, len(ves))}
	for _, fe := range ves {
		res.Errors = append(res.Errors, FieldError{Field: fe.Field(), Message: fe.Translate(trans)})
	}
	return res
}
