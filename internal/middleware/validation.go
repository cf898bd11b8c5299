package middleware

import (
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/sahilrms/lab-master/internal/model"
)

// RegisterValidators installs the enum validations used by request binding
// tags and makes validation errors report json field names. Safe to call
// more than once.
func RegisterValidators() {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok {
		return
	}

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return fld.Name
		}
		return name
	})

	_ = v.RegisterValidation("testtype", func(fl validator.FieldLevel) bool {
		return model.TestType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("teststatus", func(fl validator.FieldLevel) bool {
		return model.TestStatus(fl.Field().String()).Valid()
	})
}
