package apperr

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// ValidateStruct runs the `validate` tags of v and returns a Validation error
// naming the first failing field.
func ValidateStruct(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return Validation("Geçersiz veri")
	}

	fe := verrs[0]
	switch fe.Tag() {
	case "required":
		return Validation(fmt.Sprintf("%s zorunludur", fe.Field()))
	case "min", "gte":
		return Validation(fmt.Sprintf("%s en az %s olmalıdır", fe.Field(), fe.Param()))
	case "max", "lte":
		return Validation(fmt.Sprintf("%s en fazla %s olmalıdır", fe.Field(), fe.Param()))
	case "oneof":
		return Validation(fmt.Sprintf("%s şunlardan biri olmalıdır: %s", fe.Field(), fe.Param()))
	default:
		return Validation(fmt.Sprintf("%s geçersiz", fe.Field()))
	}
}
