package validator

import (
	"fmt"
	"time"
)

// RequiredDate validates that a time value is set.
func RequiredDate(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			return !value.IsZero()
		},
		Error: ValidationError{
			Field:   field,
			Message: "field is required",
		},
	}
}

// FutureDate validates that the value is strictly after now.
func FutureDate(field string, value time.Time) Rule {
	return Rule{
		Check: func() bool {
			return value.After(time.Now())
		},
		Error: ValidationError{
			Field:   field,
			Message: "date must be in the future",
		},
	}
}

// DateAfter validates that the value is strictly after the reference time.
func DateAfter(field string, value, after time.Time) Rule {
	return Rule{
		Check: func() bool {
			return value.After(after)
		},
		Error: ValidationError{
			Field:   field,
			Message: fmt.Sprintf("date must be after %s", after.Format(time.RFC3339)),
		},
	}
}
