package approval

import (
	"context"
	"fmt"
	"sync"
)

// Summary is a kind-specific description of an approvable, shown next to the
// approval request.
type Summary struct {
	Kind    Kind           `json:"kind"`
	ID      string         `json:"id"`
	Title   string         `json:"title"`
	Details map[string]any `json:"details,omitempty"`
}

type CompletionFailure struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

// Completion reports what a decision hook did with the approvable.
type Completion struct {
	SuccessCount int                 `json:"success_count"`
	Failures     []CompletionFailure `json:"failures"`
}

// KindHandler resolves one kind of approvable.
type KindHandler interface {
	Load(ctx context.Context, id string) (Summary, error)
	// OnDecision runs once a request reaches approved, rejected or cancelled
	// and the decision has been committed. actorID is who made the decision.
	OnDecision(ctx context.Context, req ApprovalRequest, actorID string) (*Completion, error)
}

type Registry struct {
	mu       sync.RWMutex
	handlers map[Kind]KindHandler
}

func NewRegistry() *Registry {
	return &Registry{handlers: make(map[Kind]KindHandler)}
}

func (r *Registry) Register(kind Kind, h KindHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[kind] = h
}

func (r *Registry) Handler(kind Kind) (KindHandler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}

func (r *Registry) Load(ctx context.Context, a Approvable) (Summary, error) {
	h, ok := r.Handler(a.Kind)
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownKind, a.Kind)
	}
	return h.Load(ctx, a.ID)
}
