package simulate

import (
	"errors"
	"fmt"
	"strings"

	"ecusim/internal/csvio"
)

var (
	ErrUsage  = errors.New("usage error")
	ErrInput  = errors.New("input error")
	ErrOutput = errors.New("output error")
	ErrBusy   = errors.New("another run is in progress")

	// ErrEmptyInput and ErrMissingColumn are the reader's header failures.
	ErrEmptyInput    = csvio.ErrEmptyInput
	ErrMissingColumn = csvio.ErrMissingColumn
)

// Process exit codes.
const (
	ExitOK            = 0
	ExitFailure       = 1
	ExitUsage         = 2
	ExitInput         = 3
	ExitOutput        = 4
	ExitEmptyInput    = 5
	ExitMissingColumn = 6
	ExitBusy          = 7
)

// Wrap builds an error message with operation context while tagging it with
// marker for exit-code classification. marker should be one of the sentinels
// above.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrOutput
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// ExitCode maps a run error to the process exit code. Header failures are
// checked first since they are also tagged as input errors.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrEmptyInput):
		return ExitEmptyInput
	case errors.Is(err, ErrMissingColumn):
		return ExitMissingColumn
	case errors.Is(err, ErrBusy):
		return ExitBusy
	case errors.Is(err, ErrUsage):
		return ExitUsage
	case errors.Is(err, ErrInput):
		return ExitInput
	case errors.Is(err, ErrOutput):
		return ExitOutput
	default:
		return ExitFailure
	}
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "run failure"
	}
	return strings.Join(parts, ": ")
}
