// Package validate wraps go-playground/validator so every endpoint reports
// schema violations the same way: all of them at once, as {path,message}
// pairs keyed by the JSON field name.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"kindred/pkg/httputil"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// Report violations against the wire name, not the Go field name.
	val.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return val
}

// Struct validates a request struct and returns every violation. A nil slice
// means the input is valid.
func Struct(s any) []httputil.FieldError {
	err := v.Struct(s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []httputil.FieldError{{Path: "", Message: "invalid request body"}}
	}
	out := make([]httputil.FieldError, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, httputil.FieldError{
			Path:    strings.TrimPrefix(fe.Namespace(), firstSegment(fe.Namespace())+"."),
			Message: messageFor(fe),
		})
	}
	return out
}

func firstSegment(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[:i]
	}
	return ns
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "gte":
		return "must be >= " + fe.Param()
	case "lte":
		return "must be <= " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "latitude":
		return "must be a valid latitude"
	case "longitude":
		return "must be a valid longitude"
	case "eq":
		return "must equal " + fe.Param()
	default:
		return fmt.Sprintf("failed %q constraint", fe.Tag())
	}
}
