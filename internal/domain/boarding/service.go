package boarding

import (
	"context"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/batch"
)

type BoardingService interface {
	IssueOffer(ctx context.Context, req IssueOfferRequest) (BoardingRequest, error)
	BulkIssueOffers(ctx context.Context, req BulkIssueOffersRequest) (batch.Result[IssueOfferRequest], error)
	ImportOffers(ctx context.Context, req ImportOffersRequest) (batch.Result[ImportRow], error)

	RecordAcceptance(ctx context.Context, req RecordResponseRequest) (BoardingRequest, error)
	RecordDecline(ctx context.Context, req RecordResponseRequest) (BoardingRequest, error)
	Cancel(ctx context.Context, req CancelRequest) (BoardingRequest, error)

	Board(ctx context.Context, req BoardRequest) (BoardResult, error)
	BulkBoard(ctx context.Context, req BulkBoardRequest) (batch.Result[string], error)

	SubmitBatch(ctx context.Context, req SubmitBatchRequest) (BatchSubmission, error)
	CompleteBatch(ctx context.Context, batchID, actorID string) (batch.Result[string], error)

	Get(ctx context.Context, id string) (BoardingRequest, error)
	List(ctx context.Context, filter ListFilter) ([]BoardingRequest, error)
}

// Notifier tells candidates about their offer. Delivery failures never fail
// the operation that triggered them.
type Notifier interface {
	OfferSent(ctx context.Context, c recruitment.Candidate, r BoardingRequest) error
	Onboarded(ctx context.Context, c recruitment.Candidate, s staff.Staff) error
}
