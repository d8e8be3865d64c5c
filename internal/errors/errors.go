package errors

import (
	"errors"
)

// Sentinel errors for different categories
var (
	// ErrInvalidArguments - tool arguments are missing or mistyped (surfaced verbatim to the caller)
	ErrInvalidArguments = errors.New("invalid arguments")

	// ErrFilterDenied - a hardcoded or configured deny rule matched (never retried)
	ErrFilterDenied = errors.New("filter denied")

	// ErrPathDenied - resolved path is outside the allowed directories
	ErrPathDenied = errors.New("path denied")

	// ErrProtectedFile - write/edit target is a protected file (always audited)
	ErrProtectedFile = errors.New("protected file")

	// ErrCommandTimeout - bash command exceeded its deadline (child is still reaped)
	ErrCommandTimeout = errors.New("command timeout")

	// ErrTamperDetected - policy manifest integrity check failed
	ErrTamperDetected = errors.New("tamper detected")

	// ErrOldStringNotFound - edit_file old_string not present in the file
	ErrOldStringNotFound = errors.New("old_string not found in file")

	// ErrToolNotFound - no tool registered under the requested name
	ErrToolNotFound = errors.New("tool not found")
)
