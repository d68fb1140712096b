package handler

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Username and password shape rules. Go's regexp has no lookahead, so the
// exact-password rule combines a charset pattern with explicit class scans.
var (
	// usernamePattern: starts with a letter; letters, digits, underscores and
	// dots only; 3–32 characters.
	usernamePattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]{2,31}$`)

	// passwordCharset: 8–128 characters from the allowed set (latin letters,
	// arabic digits, and ~ ! ? @ # $ % ^ & * _ - + ( ) [ ] { } > < / \ | " ' . , : ;).
	passwordCharset = regexp.MustCompile(`^[a-zA-Z0-9~!?@#$%^&*_\-+()\[\]{}></\\|"'.,:;]{8,128}$`)
)

// echoValidator wraps go-playground/validator so Echo can call c.Validate(req).
type echoValidator struct {
	v *validator.Validate
}

// NewValidator returns an echoValidator ready to be assigned to echo.Echo.Validator.
// It registers the custom username/password tags used by the auth DTOs.
func NewValidator() *echoValidator {
	v := validator.New()
	_ = v.RegisterValidation("username", validUsername)
	_ = v.RegisterValidation("password_exact", validExactPassword)
	_ = v.RegisterValidation("password_shallow", validShallowPassword)
	return &echoValidator{v: v}
}

func validUsername(fl validator.FieldLevel) bool {
	return usernamePattern.MatchString(fl.Field().String())
}

// validExactPassword is the full rule used for registration and password
// changes: charset plus at least one lowercase, one uppercase, one digit.
func validExactPassword(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if !passwordCharset.MatchString(s) {
		return false
	}
	var hasLower, hasUpper, hasDigit bool
	for _, r := range s {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	return hasLower && hasUpper && hasDigit
}

// validShallowPassword checks only the charset and length. Sufficient for
// login, where the stored hash decides anyway.
func validShallowPassword(fl validator.FieldLevel) bool {
	return passwordCharset.MatchString(fl.Field().String())
}

// Validate satisfies the echo.Validator interface.
func (ev *echoValidator) Validate(i any) error {
	if err := ev.v.Struct(i); err != nil {
		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			msgs := make([]string, 0, len(ve))
			for _, fe := range ve {
				msgs = append(msgs, fieldError(fe))
			}
			return fmt.Errorf("%s", strings.Join(msgs, "; "))
		}
		return err
	}
	return nil
}

// fieldError converts a single ValidationError into a human-readable message.
func fieldError(fe validator.FieldError) string {
	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "email":
		return field + " must be a valid email"
	case "username":
		return "username does not meet the requirements"
	case "password_exact":
		return "password does not meet the requirements"
	case "password_shallow":
		return "password is incorrect"
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
