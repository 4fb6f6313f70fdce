package cli

import (
	"errors"

	"github.com/vk/shipgrid/internal/params"
	"github.com/vk/shipgrid/internal/stage"
)

// FromError maps a run error to the process exit status. Parameter and
// usage problems exit 2; everything else, including stage failures, exits 1.
func FromError(err error) *ExitError {
	if err == nil {
		return nil
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr
	}

	var missing *params.MissingError
	var unknown *stage.UnknownStageError
	if errors.As(err, &missing) || errors.As(err, &unknown) {
		return &ExitError{Code: 2, Message: err.Error()}
	}
	return &ExitError{Code: 1, Message: err.Error()}
}
