package errs

import (
	"errors"
	"fmt"
)

// ValidationError aggregates configuration problems so callers see every
// bad option at once instead of fixing them one restart at a time.
type ValidationError struct {
	Errors []error `json:"errors"`
}

func (v *ValidationError) Add(err error) {
	v.Errors = append(v.Errors, err)
}

func (v *ValidationError) HasError() bool {
	return len(v.Errors) > 0
}

func (v *ValidationError) Error() string {
	if len(v.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%v", errors.Join(v.Errors...))
}
