package handler

import (
	"regexp"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// phonePattern is the format the identity provider accepts: a plus sign
// followed by up to fifteen digits, no separators.
var phonePattern = regexp.MustCompile(`^\+\d{1,15}$`)

// RegisterValidators installs the custom binding validators. Call once at
// startup, before routes are served.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}
	v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return phonePattern.MatchString(fl.Field().String())
	})
}
