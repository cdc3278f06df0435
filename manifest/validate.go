package manifest

import (
	"fmt"
	"regexp"

	validator "gopkg.in/go-playground/validator.v9"
)

var check = validator.New()

var identRe = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9_-]*$`)

func init() {
	err := check.RegisterValidation("ident", func(fl validator.FieldLevel) bool {
		return identRe.MatchString(fl.Field().String())
	})
	if err != nil {
		panic(fmt.Sprintf("Register custom validator: %v", err))
	}
}

// checkIdent validates that a user supplied identifier (stack name, resource
// id, kind, output name) is a valid identifier: it must start with a letter
// and contain only letters, digits, underscores and hyphens.
func checkIdent(what, value string) error {
	if err := check.Var(value, "required,max=64,ident"); err != nil {
		return fmt.Errorf("invalid %s %q: must start with a letter and contain only letters, digits, _ and -", what, value)
	}
	return nil
}
