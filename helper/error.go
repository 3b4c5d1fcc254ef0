package helper

import "fmt"

// NewError wraps err with the operation it happened in. The wrapped error
// stays reachable through errors.Is/errors.As.
func NewError(operation string, err error) error {
	return fmt.Errorf("error at %v: %w", operation, err)
}
