package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/validator"
)

// Failure describes one item that did not go through.
type Failure[T any] struct {
	Index  int    `json:"index"`
	Item   T      `json:"item"`
	Reason string `json:"reason"`
	Err    error  `json:"-"`
}

// Result reports partial success of a batch run.
type Result[T any] struct {
	Total        int          `json:"total"`
	SuccessCount int          `json:"success_count"`
	Failures     []Failure[T] `json:"failures"`
}

// FailureCount is a convenience for len(Failures).
func (r Result[T]) FailureCount() int {
	return len(r.Failures)
}

// Reasoner is implemented by errors that carry a short machine-readable reason.
type Reasoner interface {
	Reason() string
}

// Run applies op to every item. Each item succeeds or fails on its own; op is
// expected to keep its own writes atomic. An empty item list is rejected
// before any work starts.
func Run[T any](ctx context.Context, items []T, op func(ctx context.Context, item T) error) (Result[T], error) {
	if len(items) == 0 {
		return Result[T]{}, validator.ValidationErrors{{
			Field:   "items",
			Message: "at least one item is required",
		}}
	}

	result := Result[T]{
		Total:    len(items),
		Failures: make([]Failure[T], 0),
	}

	for i, item := range items {
		if err := ctx.Err(); err != nil {
			result.Failures = append(result.Failures, Failure[T]{Index: i, Item: item, Reason: "cancelled", Err: err})
			continue
		}

		if err := runOne(ctx, item, op); err != nil {
			result.Failures = append(result.Failures, Failure[T]{
				Index:  i,
				Item:   item,
				Reason: ReasonOf(err),
				Err:    err,
			})
			continue
		}
		result.SuccessCount++
	}

	if len(result.Failures) > 0 {
		slog.Info("Batch finished with failures",
			"total", result.Total,
			"success_count", result.SuccessCount,
			"failure_count", len(result.Failures),
		)
	}

	return result, nil
}

func runOne[T any](ctx context.Context, item T, op func(ctx context.Context, item T) error) (err error) {
	defer func() {
		if p := recover(); p != nil {
			slog.Error("Batch item panicked", "panic", p)
			err = fmt.Errorf("item panicked: %v", p)
		}
	}()
	return op(ctx, item)
}

// ReasonOf extracts the reason reported for a failed item.
func ReasonOf(err error) string {
	var r Reasoner
	if errors.As(err, &r) {
		return r.Reason()
	}
	return err.Error()
}
