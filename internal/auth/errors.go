// file: internal/auth/errors.go

package auth

import "errors"

var (
	// ErrUnsupportedScheme is returned when a scheme string matches no known scheme
	ErrUnsupportedScheme = errors.New("unsupported auth scheme")

	// ErrCommandExecution is returned when the refresh command cannot be run
	// or its output cannot be read as text
	ErrCommandExecution = errors.New("refresh command execution failed")

	// ErrInvalidRefreshOutput is returned when the refresh command output is not
	// exactly "<token> <lifetime-seconds>"
	ErrInvalidRefreshOutput = errors.New("invalid refresh command output")
)
