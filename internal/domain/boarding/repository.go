package boarding

import "context"

type BoardingRepository interface {
	// Create returns ErrDuplicateActive when the active candidate/ticket
	// index rejects the row.
	Create(ctx context.Context, r BoardingRequest) (BoardingRequest, error)
	GetByID(ctx context.Context, id string) (BoardingRequest, error)
	// GetForUpdate locks the row for the rest of the transaction.
	GetForUpdate(ctx context.Context, id string) (BoardingRequest, error)
	ExistsActive(ctx context.Context, candidateID, ticketID string) (bool, error)
	Update(ctx context.Context, r BoardingRequest) error
	List(ctx context.Context, filter ListFilter) ([]BoardingRequest, error)
	ListByBatch(ctx context.Context, batchID string) ([]BoardingRequest, error)
	AssignBatch(ctx context.Context, batchID string, ids []string) error
	ClearBatch(ctx context.Context, batchID string) error
}

type OfferResponseRepository interface {
	Create(ctx context.Context, resp OfferResponse) (OfferResponse, error)
	// LatestAccepted returns ErrResponseNotFound when the request has no
	// accepted response.
	LatestAccepted(ctx context.Context, boardingRequestID string) (OfferResponse, error)
}

type BatchRepository interface {
	Create(ctx context.Context, b Batch) (Batch, error)
	GetByID(ctx context.Context, id string) (Batch, error)
	GetForUpdate(ctx context.Context, id string) (Batch, error)
	UpdateStatus(ctx context.Context, b Batch) error
}
