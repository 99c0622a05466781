package audit

import "time"

type EntityType string

const (
	EntityBoardingRequest EntityType = "boarding_request"
	EntityApprovalRequest EntityType = "approval_request"
	EntityBoardingBatch   EntityType = "boarding_batch"
	EntityStaffRecord     EntityType = "staff_record"
)

func (t EntityType) IsValid() bool {
	switch t {
	case EntityBoardingRequest, EntityApprovalRequest, EntityBoardingBatch, EntityStaffRecord:
		return true
	}
	return false
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Entry is one append-only audit record. FromStatus is empty for the entry
// that creates the entity; ToStatus is empty for entries that do not move the
// entity between states.
type Entry struct {
	ID         string         `json:"id"`
	EntityType EntityType     `json:"entity_type"`
	EntityID   string         `json:"entity_id"`
	Action     string         `json:"action"`
	FromStatus string         `json:"from_status,omitempty"`
	ToStatus   string         `json:"to_status,omitempty"`
	ActorID    string         `json:"actor_id"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// IsTransition reports whether the entry moved the entity between states.
func (e Entry) IsTransition() bool {
	return e.ToStatus != ""
}

// ReplayResult summarizes a verified walk over an entity's history.
type ReplayResult struct {
	EntityType  EntityType `json:"entity_type"`
	EntityID    string     `json:"entity_id"`
	Entries     int        `json:"entries"`
	Transitions int        `json:"transitions"`
	FinalStatus string     `json:"final_status"`
}
