package shipmentcarbon

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnknownPreset   = errors.New("unknown material preset")
	ErrMissingColumn   = errors.New("missing computed column")
	ErrOverridesSource = errors.New("invalid overrides source")
	ErrEmptyTable      = errors.New("empty table")
)

// UnknownPresetError is returned when a preset name has no case-insensitive match.
type UnknownPresetError struct {
	Name      string
	Available []string
	// Suggestions are the available presets closest to Name
	Suggestions []string
}

func (e *UnknownPresetError) Error() string {
	msg := fmt.Sprintf("unknown material preset '%s', available presets: [%s]", e.Name, strings.Join(e.Available, ", "))
	if len(e.Suggestions) > 0 {
		msg += fmt.Sprintf(" (did you mean %s?)", strings.Join(e.Suggestions, " or "))
	}
	return msg
}

func (e *UnknownPresetError) Is(target error) bool {
	return target == ErrUnknownPreset
}

// MissingColumnError is returned when a summary is asked for a table that
// was never computed.
type MissingColumnError struct {
	Column string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("column '%s' missing, run the emissions pipeline first", e.Column)
}

func (e *MissingColumnError) Is(target error) bool {
	return target == ErrMissingColumn
}

// OverridesSourceError is returned when factor overrides cannot be read or coerced.
type OverridesSourceError struct {
	Source string
	Err    error
}

func (e *OverridesSourceError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("overrides source %s is not usable", e.Source)
	}
	return fmt.Sprintf("overrides source %s is not usable: %s", e.Source, e.Err.Error())
}

func (e *OverridesSourceError) Unwrap() error {
	return e.Err
}

func (e *OverridesSourceError) Is(target error) bool {
	return target == ErrOverridesSource
}

// EmptyTableError is returned when an operation needs at least one computed record.
type EmptyTableError struct {
	Operation string
}

func (e *EmptyTableError) Error() string {
	return fmt.Sprintf("operation failed (op: %s): table has no records", e.Operation)
}

func (e *EmptyTableError) Is(target error) bool {
	return target == ErrEmptyTable
}
