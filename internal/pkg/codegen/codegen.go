package codegen

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// ErrCodeConflict is returned by storage when a generated code collides with
// one committed by a concurrent writer. It is retryable.
var ErrCodeConflict = errors.New("generated code already taken")

// ErrAttemptsExhausted is returned by WithRetry when every attempt collided.
var ErrAttemptsExhausted = errors.New("code generation attempts exhausted")

// Field names the column a sequence is issued into.
type Field string

const (
	FieldStaffID      Field = "staff_id"
	FieldEmployeeCode Field = "employee_code"
)

const (
	StaffIDWidth      = 4
	EmployeeCodeWidth = 3
)

// Sequence describes one prefix-scoped sequence.
type Sequence struct {
	Field  Field
	Prefix string
	Scope  string // e.g. client id; empty means global
	Width  int
}

// MaxCodeFinder looks up the highest code already issued under a prefix.
// It returns an empty string when nothing has been issued yet.
type MaxCodeFinder interface {
	FindMaxCodeWithPrefix(ctx context.Context, field Field, prefix, scope string) (string, error)
}

type Generator struct {
	finder MaxCodeFinder
}

func NewGenerator(finder MaxCodeFinder) *Generator {
	return &Generator{finder: finder}
}

// Generate returns the next code for seq. It reads the current maximum every
// time it is called, so a retry after ErrCodeConflict sees the winner's code.
func (g *Generator) Generate(ctx context.Context, seq Sequence) (string, error) {
	if seq.Width <= 0 {
		return "", fmt.Errorf("invalid width %d for sequence %s", seq.Width, seq.Prefix)
	}

	last, err := g.finder.FindMaxCodeWithPrefix(ctx, seq.Field, seq.Prefix, seq.Scope)
	if err != nil {
		return "", fmt.Errorf("failed to find max %s with prefix %q: %w", seq.Field, seq.Prefix, err)
	}

	return Next(seq.Prefix, last, seq.Width), nil
}

// Next computes the code following last under prefix. A missing or malformed
// suffix counts as zero.
func Next(prefix, last string, width int) string {
	n := 0
	if last != "" && strings.HasPrefix(last, prefix) {
		if parsed, err := strconv.Atoi(last[len(prefix):]); err == nil && parsed >= 0 {
			n = parsed
		}
	}
	return fmt.Sprintf("%s%0*d", prefix, width, n+1)
}

// StaffIDPrefix builds the per-client, per-year prefix, e.g. "ACME25-".
func StaffIDPrefix(clientCode string, at time.Time) string {
	return fmt.Sprintf("%s%02d-", strings.ToUpper(strings.TrimSpace(clientCode)), at.Year()%100)
}

// EmployeeCodePrefix builds the yearly employee code prefix, e.g. "EMP2025".
func EmployeeCodePrefix(at time.Time) string {
	return fmt.Sprintf("EMP%04d", at.Year())
}

// WithRetry runs fn until it succeeds, fails with something other than
// ErrCodeConflict, or attempts run out. fn must regenerate its codes on every
// call.
func WithRetry(ctx context.Context, attempts int, fn func(ctx context.Context, attempt int) error) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := fn(ctx, attempt)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrCodeConflict) {
			return err
		}

		lastErr = err
		slog.Warn("Generated code collided, retrying", "attempt", attempt, "max_attempts", attempts, "error", err)
	}

	return fmt.Errorf("%w after %d attempts: %v", ErrAttemptsExhausted, attempts, lastErr)
}
