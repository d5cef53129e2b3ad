package timer

import (
	"errors"
	"fmt"
)

var (
	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrEmissionFailure   = errors.New("event sink could not accept event")
)

func wrapKey(err error, key Key) error {
	return fmt.Errorf("%w: %s", err, key)
}
