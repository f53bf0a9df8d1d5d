// file: internal/auth/invoker.go

package auth

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"

	"auth-refresher/internal/logger"
)

const (
	// maxStderrLogBytes bounds how much of the refresh command's stderr is logged
	maxStderrLogBytes = 512

	// commandWaitDelay is how long to wait for output pipes to close after the
	// context kills the command (grandchildren may keep them open)
	commandWaitDelay = 500 * time.Millisecond
)

// Refresher obtains a brand-new token from a refresh command
type Refresher interface {
	Refresh(ctx context.Context, command string) (Token, error)
}

// CommandInvoker runs the refresh command as a subprocess with no arguments
// and parses "<token> <lifetime-seconds>" from its standard output.
type CommandInvoker struct {
	clock  clockwork.Clock
	logger *logger.Logger
}

// NewCommandInvoker creates an invoker. A nil clock uses the real clock and a
// nil logger discards output.
func NewCommandInvoker(clock clockwork.Clock, log *logger.Logger) *CommandInvoker {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if log == nil {
		log = logger.NewNopLogger()
	}
	return &CommandInvoker{
		clock:  clock,
		logger: log,
	}
}

// Refresh runs command once. The context is the only bound on run time.
func (i *CommandInvoker) Refresh(ctx context.Context, command string) (Token, error) {
	if command == "" {
		return Token{}, fmt.Errorf("%w: empty command", ErrCommandExecution)
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, command)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = commandWaitDelay

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || ctx.Err() != nil {
			return Token{}, fmt.Errorf("%w: %s: %w", ErrCommandExecution, command, err)
		}
		// Output is still available; a bad exit alone does not fail the refresh
		i.logger.Warn("refresh command exited with non-zero status",
			"command", command,
			"exitCode", exitErr.ExitCode(),
			"stderr", truncate(stderr.String(), maxStderrLogBytes))
	}

	if !utf8.Valid(stdout.Bytes()) {
		return Token{}, fmt.Errorf("%w: %s: output is not valid UTF-8", ErrCommandExecution, command)
	}

	return ParseRefreshOutput(stdout.String(), i.clock.Now())
}

// ParseRefreshOutput parses refresh command output into a token issued at
// issuedAt. The output must be exactly two whitespace-separated fields: the
// credential and a signed lifetime in seconds.
func ParseRefreshOutput(output string, issuedAt time.Time) (Token, error) {
	fields := strings.Fields(output)
	if len(fields) != 2 {
		return Token{}, fmt.Errorf("%w: expected 2 fields, got %d", ErrInvalidRefreshOutput, len(fields))
	}

	lifetime, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil {
		return Token{}, fmt.Errorf("%w: lifetime %q is not an integer", ErrInvalidRefreshOutput, fields[1])
	}

	return Token{
		Value:    fields[0],
		Lifespan: LifespanFromSeconds(lifetime),
		IssuedAt: issuedAt,
	}, nil
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
