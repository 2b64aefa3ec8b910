package sessions

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidInput = errors.New("invalid input")
	// ErrNoCareSetting reports a session whose care setting is unset or gone.
	ErrNoCareSetting = fmt.Errorf("care setting %w", ErrNotFound)
)
