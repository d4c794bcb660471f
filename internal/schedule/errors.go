package schedule

import (
	"errors"
	"fmt"
)

// ErrInvalidConfiguration is matched (via errors.Is) by every ConfigurationError.
var ErrInvalidConfiguration = errors.New("invalid plan configuration")

// ConfigurationError reports a plan parameter that makes the window impossible to compute.
type ConfigurationError struct {
	Field string
	Value int
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s must not be %d", ErrInvalidConfiguration, e.Field, e.Value)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrInvalidConfiguration
}
