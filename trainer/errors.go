package trainer

import (
	"errors"
	"fmt"

	"tetris/agent"
)

var (
	ErrConfiguration = errors.New("invalid configuration")
	ErrEvaluation    = errors.New("evaluation failed")
)

// ConfigurationError names the setting that was rejected. Err, when set, is
// the underlying cause and is matched by errors.Is alongside ErrConfiguration.
type ConfigurationError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigurationError) Error() string {
	msg := fmt.Sprintf("%s: %s: %s", ErrConfiguration, e.Field, e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigurationError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrConfiguration}
	}
	return []error{ErrConfiguration, e.Err}
}

func configErr(field, format string, args ...any) error {
	return &ConfigurationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// EvaluationFailure reports an individual whose playouts failed or panicked.
// The individual scores zero and the generation carries on.
type EvaluationFailure struct {
	Index  int
	Genome agent.Genome
	Err    error
}

func (e *EvaluationFailure) Error() string {
	return fmt.Sprintf("%s: individual %d: %v", ErrEvaluation, e.Index, e.Err)
}

func (e *EvaluationFailure) Unwrap() []error {
	return []error{ErrEvaluation, e.Err}
}
