package usecase

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors carries every violated field so the client can
// render all of them at once.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	parts := make([]string, len(e))
	for i, v := range e {
		parts[i] = v.Error()
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

var phonePattern = regexp.MustCompile(`^[0-9+ ]+$`)

func ValidateSubmitLeadInput(input SubmitLeadInput) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(input.Name) == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	} else if len(input.Name) > 200 {
		errs = append(errs, ValidationError{"name", "must not exceed 200 characters"})
	}

	if strings.TrimSpace(input.Email) == "" {
		errs = append(errs, ValidationError{"email", "is required"})
	} else if _, err := mail.ParseAddress(strings.TrimSpace(input.Email)); err != nil {
		errs = append(errs, ValidationError{"email", "is invalid"})
	}

	if strings.TrimSpace(input.Message) == "" {
		errs = append(errs, ValidationError{"message", "is required"})
	} else if len(input.Message) > 5000 {
		errs = append(errs, ValidationError{"message", "must not exceed 5000 characters"})
	}

	// Phone is optional on the marketing form.
	if p := strings.TrimSpace(input.Phone); p != "" && !phonePattern.MatchString(p) {
		errs = append(errs, ValidationError{"phone", "must contain only digits, '+' and spaces"})
	}

	return errs
}
