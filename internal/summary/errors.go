package summary

import "fmt"

// ConfigurationError reports an instructions file that could not be read.
// It is a warning: the service continues with empty instructions.
type ConfigurationError struct {
	Path string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("reading instructions %s: %v", e.Path, e.Err)
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// ModelInvocationError wraps a failed model call together with the context
// that was sent.
type ModelInvocationError struct {
	Provider string
	Model    string
	Context  Context
	Err      error
}

func (e *ModelInvocationError) Error() string {
	return fmt.Sprintf("failed to generate summary with %s/%s: %v\ncontext:\n%s",
		e.Provider, e.Model, e.Err, e.Context.String())
}

func (e *ModelInvocationError) Unwrap() error { return e.Err }
