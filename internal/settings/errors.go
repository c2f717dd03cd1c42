package settings

import (
	"errors"
	"fmt"
)

// ErrEncryptedInputUnsupported is returned when a credential is marked as
// already encrypted. Only plaintext values can be read.
var ErrEncryptedInputUnsupported = errors.New("pre-encrypted credential values are not supported")

// MissingFieldError is returned when an expected settings element is absent.
type MissingFieldError struct {
	// Section is the element that should contain Field, e.g. "Username".
	Section string
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("settings: %s is missing %s", e.Section, e.Field)
}
