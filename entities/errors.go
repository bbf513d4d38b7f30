package entities

import (
	"fmt"
	"strings"
)

// ConfigurationError means a credential is missing. Front ends should send the
// user to the settings instead of showing an error.
type ConfigurationError struct {
	Provider string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("missing API key for %s", e.Provider)
}

func (e *ConfigurationError) Is(err error) bool {
	_, ok := err.(*ConfigurationError)
	return ok
}

// ValidationError is returned for input that is never sent to the network,
// such as an empty prompt.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(err error) bool {
	_, ok := err.(*ValidationError)
	return ok
}

// ContentSafetyError is a rejection of the prompt on policy grounds.
type ContentSafetyError struct {
	Message string
}

func (e *ContentSafetyError) Error() string {
	return "Content Violation: This prompt triggered safety filters."
}

func (e *ContentSafetyError) Is(err error) bool {
	_, ok := err.(*ContentSafetyError)
	return ok
}

// APIError covers every other failure of a remote generation API.
type APIError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Provider, e.StatusCode, e.Message)
	}

	return fmt.Sprintf("%s error: %s", e.Provider, e.Message)
}

func (e *APIError) Is(err error) bool {
	_, ok := err.(*APIError)
	return ok
}

// SubStepError wraps the failure of an optional pipeline step. It is logged
// and replaced by a fallback, never returned to the user.
type SubStepError struct {
	Step string
	Err  error
}

func (e *SubStepError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Step, e.Err)
}

func (e *SubStepError) Unwrap() error {
	return e.Err
}

var safetyKeywords = []string{"safety", "blocked", "policy"}

// IsSafetyMessage reports whether an API error message describes a policy rejection.
func IsSafetyMessage(message string) bool {
	lower := strings.ToLower(message)

	for _, keyword := range safetyKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}

	return false
}

// ClassifyAPIMessage turns an error message from a provider into a
// ContentSafetyError or an APIError.
func ClassifyAPIMessage(provider string, statusCode int, message string) error {
	if IsSafetyMessage(message) {
		return &ContentSafetyError{Message: message}
	}

	return &APIError{Provider: provider, StatusCode: statusCode, Message: message}
}
