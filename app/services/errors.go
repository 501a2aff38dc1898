package services

import (
	"fmt"
	"strings"

	"github.com/shashiranjanraj/storeadmin/pkg/validate"
)

// ValidationError wraps field errors for a rejected input.
type ValidationError struct {
	Fields validate.Errors
}

func (e *ValidationError) Error() string {
	return "validation failed: " + e.Fields.Error()
}

// check turns validate.Struct output into a *ValidationError.
func check(v interface{}) error {
	if errs := validate.Struct(v); validate.HasErrors(errs) {
		return &ValidationError{Fields: errs}
	}
	return nil
}

// PartialFailureError reports the writes of one batch that did not succeed.
// Writes that succeeded stay applied.
type PartialFailureError struct {
	ProductID int64
	Total     int
	Failed    []WriteResult
}

func (e *PartialFailureError) Error() string {
	parts := make([]string, len(e.Failed))
	for i, f := range e.Failed {
		parts[i] = fmt.Sprintf("%s: %v", f.Write.Label(), f.Err)
	}
	return fmt.Sprintf("%d of %d specification writes failed for product %d: %s",
		len(e.Failed), e.Total, e.ProductID, strings.Join(parts, "; "))
}

// Unwrap exposes the individual write errors to errors.Is/As.
func (e *PartialFailureError) Unwrap() []error {
	errs := make([]error, len(e.Failed))
	for i, f := range e.Failed {
		errs[i] = f.Err
	}
	return errs
}
