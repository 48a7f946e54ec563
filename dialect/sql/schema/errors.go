package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ConfigError reports an invalid schema configuration: an unresolved
// pointer, conflicting duplicate definitions, an unsupported field type,
// or a rank map that disagrees with its object list. It is fatal and
// carries the representation of the offending object for diagnosis.
type ConfigError struct {
	Representation string // offending object identity, may be empty.
	Message        string
}

// Error returns the error string.
func (e *ConfigError) Error() string {
	if e.Representation != "" {
		return fmt.Sprintf("sql/schema: %s: %s", e.Representation, e.Message)
	}
	return fmt.Sprintf("sql/schema: %s", e.Message)
}

// NewConfigError returns a new ConfigError for the given representation.
func NewConfigError(representation, format string, args ...any) *ConfigError {
	return &ConfigError{Representation: representation, Message: fmt.Sprintf(format, args...)}
}

// IsConfigError returns true if the error is a ConfigError.
func IsConfigError(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigError
	return errors.As(err, &e)
}

// CycleError reports a dependency cycle detected during topological
// sorting. The extractor and inspector never emit cyclic graphs, so a
// cycle indicates a bug in one of them rather than a user error.
type CycleError struct {
	Remaining []string // representations that could not be ordered.
}

// Error returns the error string.
func (e *CycleError) Error() string {
	return fmt.Sprintf("sql/schema: dependency cycle among %s", strings.Join(e.Remaining, ", "))
}

// IsCycleError returns true if the error is a CycleError.
func IsCycleError(err error) bool {
	if err == nil {
		return false
	}
	var e *CycleError
	return errors.As(err, &e)
}

// ExecError wraps a DDL statement that failed to execute. The remaining
// actions of the plan are aborted; applied actions are not rolled back.
type ExecError struct {
	Op    Op     // action that failed.
	Query string // statement that failed.
	Err   error  // underlying driver error.
}

// Error returns the error string.
func (e *ExecError) Error() string {
	return fmt.Sprintf("sql/schema: exec %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *ExecError) Unwrap() error {
	return e.Err
}

// IsExecError returns true if the error is an ExecError.
func IsExecError(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecError
	return errors.As(err, &e)
}
