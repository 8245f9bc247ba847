package request

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/mcoot/s3arena/internal/api/apierr"
)

// DateLayout is the wire format for date-only fields
const DateLayout = "2006-01-02"

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// Report fields by their JSON names
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// Decode reads a JSON body into dst and validates it.
// An empty body decodes to the zero value when allowEmpty is set.
func Decode(r *http.Request, dst any, allowEmpty bool) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		if !(allowEmpty && errors.Is(err, io.EOF)) {
			return apierr.NewInvalidRequestError("JSON parse error - " + err.Error())
		}
	}
	return Validate(dst)
}

// Validate runs struct validation and converts failures to a field error map
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return apierr.NewInvalidRequestError(err.Error())
	}

	fe := apierr.FieldErrors{}
	for _, e := range verrs {
		fe[e.Field()] = append(fe[e.Field()], message(e))
	}
	return apierr.NewValidationError(fe)
}

func message(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return apierr.MsgRequired
	case "email":
		return "Enter a valid email address."
	case "min":
		if e.Kind() == reflect.Slice {
			return apierr.MsgEmptyList
		}
		return fmt.Sprintf("Ensure this field has at least %s characters.", e.Param())
	case "max":
		return fmt.Sprintf("Ensure this field has no more than %s characters.", e.Param())
	case "gt":
		return fmt.Sprintf("Ensure this value is greater than %s.", e.Param())
	default:
		return "Invalid value."
	}
}

// ParseDate parses an optional date-only field. Empty strings mean no date.
func ParseDate(field string, s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(DateLayout, *s)
	if err != nil {
		return nil, apierr.NewFieldError(field, "Date has wrong format. Use one of these formats instead: YYYY-MM-DD.")
	}
	return &t, nil
}
