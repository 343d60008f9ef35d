package model

import "fmt"

// ValidationError reports unusable input, such as an unknown strategy name or
// an empty required field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
