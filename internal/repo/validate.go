package repo

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"

	"github.com/roach88/recordstore/internal/model"
	"github.com/roach88/recordstore/internal/store"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report fields by column name, not Go name.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return strings.ToLower(f.Name)
		}
		if name == "" {
			return f.Name
		}
		return name
	})

	mustRegister(v, "attendance_status", func(fl validator.FieldLevel) bool {
		return model.AttendanceStatus(fl.Field().String()).Valid()
	})
	mustRegister(v, "task_status", func(fl validator.FieldLevel) bool {
		return model.TaskStatus(fl.Field().String()).Valid()
	})
	mustRegister(v, "priority", func(fl validator.FieldLevel) bool {
		return model.Priority(fl.Field().String()).Valid()
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("register validation %q: %v", tag, err))
	}
}

// check validates rec and converts the first failure into a
// ValidationFailed error naming the offending field.
func check(entity string, rec any) error {
	err := validate.Struct(rec)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return fmt.Errorf("validate %s: %w", entity, err)
	}
	fe := verrs[0]
	return store.NewValidationError(entity, fe.Field(), describe(fe))
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "must not be empty"
	case "contains":
		return fmt.Sprintf("must contain %q", fe.Param())
	case "min", "gte":
		return "must be at least " + fe.Param()
	case "max", "lte":
		return "must be at most " + fe.Param()
	default:
		return fmt.Sprintf("invalid value %v", fe.Value())
	}
}

// requireID rejects records without an assigned id.
func requireID(entity string, id int64) error {
	if id <= 0 {
		return store.NewValidationError(entity, "id", "must be assigned")
	}
	return nil
}

// clean trims s and puts it in NFC, so that visually identical Hangul
// usernames and names compare equal under UNIQUE.
func clean(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// nfc normalises free text without trimming it.
func nfc(s string) string {
	return norm.NFC.String(s)
}
