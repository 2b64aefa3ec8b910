package catalog

import (
	"errors"

	"teambuilder-backend/internal/coverage"
)

var (
	ErrNotFound = errors.New("not found")
	// ErrUnknownLevel is returned for permission values other than Y, LC or N.
	ErrUnknownLevel = coverage.ErrUnknownLevel
)
