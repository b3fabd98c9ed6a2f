package config

import (
	"fmt"
	"strings"
)

// ValidationError represents one rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (ve ValidationError) Error() string {
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors collects every violation found in one pass.
type ValidationErrors []ValidationError

func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}
	messages := make([]string, len(ve))
	for i, e := range ve {
		messages[i] = e.Error()
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

func (ve *ValidationErrors) add(field, message string) {
	*ve = append(*ve, ValidationError{Field: field, Message: message})
}

// Validate checks every field of c, collecting all violations rather
// than failing on the first.
func (c NopeaConfig) Validate() error {
	var errs ValidationErrors

	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs.add("apiPort", "must be between 1 and 65535")
	}
	if c.K8sModule == "" {
		errs.add("k8sModule", "must not be empty")
	}
	if c.AutoCanaryThreshold < 0 || c.AutoCanaryThreshold > 1 {
		errs.add("autoCanaryThreshold", "must be in [0,1]")
	}
	if c.QueueCapacity <= 0 {
		errs.add("queueCapacity", "must be positive")
	}
	if c.DecayInterval <= 0 {
		errs.add("decayInterval", "must be positive")
	}
	if c.CrashCooldown < 0 {
		errs.add("crashCooldown", "must not be negative")
	}

	if len(errs) == 0 {
		return nil
	}
	return errs
}
