package doctrail

import (
	"errors"
	"fmt"
	"strings"

	"github.com/n2code/doctrail/internal/content"
)

type CommandError struct {
	message string
	cause   error
}

func (e *CommandError) Error() string {
	var msg strings.Builder
	fmt.Fprint(&msg, e.message)
	if e.cause != nil {
		fmt.Fprint(&msg, ": ", e.cause)
	}
	return msg.String()
}

func (e *CommandError) Unwrap() error {
	return e.cause
}

func newCommandError(message string, cause error) *CommandError {
	return &CommandError{message: message, cause: cause}
}

var ErrNoIdentity = errors.New("no identity attached to file")

var ErrNegativeTimeSpent = errors.New("writing time must not be negative")

var (
	ErrNotFound    = content.ErrNotFound
	ErrInvalidHash = content.ErrInvalidHash
)
