package domain

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/choncance/choncance-backend/internal/apperr"
	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once

	phonePattern  = regexp.MustCompile(`^\d{3}-\d{4}-\d{4}$`)
	letterPattern = regexp.MustCompile(`[A-Za-z]`)
	digitPattern  = regexp.MustCompile(`\d`)
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})

		_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return letterPattern.MatchString(s) && digitPattern.MatchString(s)
		})
		_ = validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
			return phonePattern.MatchString(fl.Field().String())
		})
		_ = validate.RegisterValidation("accepted", func(fl validator.FieldLevel) bool {
			return fl.Field().Kind() == reflect.Bool && fl.Field().Bool()
		})
	})
	return validate
}

// Validate checks s against its validate tags. Failures come back as a
// VALIDATION_ERROR whose details map each json field name to a message.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apperr.Validation(apperr.CodeValidation, "Invalid input")
	}

	appErr := apperr.Validation(apperr.CodeValidation, "Invalid input")
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msg := fieldMessage(fe)
		if _, seen := appErr.Details[fe.Field()]; !seen {
			appErr.WithDetail(fe.Field(), msg)
		}
		messages = append(messages, fe.Field()+": "+msg)
	}
	appErr.Message = strings.Join(messages, "; ")
	return appErr
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "password":
		return "must contain at least one letter and one digit"
	case "phone":
		return "must match 000-0000-0000"
	case "accepted":
		return "must be accepted"
	default:
		return "is invalid"
	}
}
