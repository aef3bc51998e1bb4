package middleware

import (
	"reflect"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// carrierCodePattern matches lowercase carrier codes like "leopards" or
// "post_ex"
var carrierCodePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]{1,31}$`)

// SetupValidator configures the request validator with JSON field names
// and the custom carriercode tag
func SetupValidator() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	// Use JSON tag names for field names in validation errors
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		}
		return name
	})

	_ = v.RegisterValidation("carriercode", func(fl validator.FieldLevel) bool {
		return carrierCodePattern.MatchString(fl.Field().String())
	})
}
