package limmag

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = newValidator()

// newValidator reports fields by their JSON names.
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Validate checks every field against its documented range and that the
// civil date exists. Humidity must stay below 100%, where the aerosol term
// of the extinction model takes log(h/100) and diverges.
func (in Input) Validate() error {
	if err := validate.Struct(in); err != nil {
		return errors.New(validationMessage(err))
	}
	if in.Time().Day() != in.Day {
		return fmt.Errorf("day %d does not exist in %d-%02d", in.Day, in.Year, in.Month)
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s must satisfy %s=%s", fe.Field(), fe.Tag(), fe.Param()))
	}
	return strings.Join(msgs, "; ")
}
