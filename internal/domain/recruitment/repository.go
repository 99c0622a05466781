package recruitment

import "context"

type TicketRepository interface {
	GetByID(ctx context.Context, id string) (Ticket, error)
}

type CandidateRepository interface {
	GetByID(ctx context.Context, id string) (Candidate, error)
	GetProfile(ctx context.Context, candidateID string) (CandidateProfile, error)
	// GetApplicationLocation returns the service location the candidate applied
	// for on the ticket, or nil when none was recorded.
	GetApplicationLocation(ctx context.Context, candidateID, ticketID string) (*string, error)
}

type TemplateRepository interface {
	FindActiveTemplate(ctx context.Context, clientID, jobStructureID, payGradeID string) (OfferTemplate, error)
}

type PayGradeRepository interface {
	GetByID(ctx context.Context, id string) (PayGrade, error)
}

type OfficeRepository interface {
	FindByServiceLocation(ctx context.Context, clientID, serviceLocationID string) (string, error)
}
