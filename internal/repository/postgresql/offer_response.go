package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/boarding"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type offerResponseRepositoryImpl struct {
	db *database.DB
}

func NewOfferResponseRepository(db *database.DB) boarding.OfferResponseRepository {
	return &offerResponseRepositoryImpl{db: db}
}

// Create implements boarding.OfferResponseRepository.
func (o *offerResponseRepositoryImpl) Create(ctx context.Context, resp boarding.OfferResponse) (boarding.OfferResponse, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		INSERT INTO offer_responses (
			boarding_request_id, response_type, preferred_start_date, updated_candidate_info, candidate_message, responded_at
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`

	err := q.QueryRow(ctx, query,
		resp.BoardingRequestID, resp.ResponseType, resp.PreferredStartDate,
		resp.UpdatedCandidateInfo, resp.CandidateMessage, resp.RespondedAt,
	).Scan(&resp.ID)
	if err != nil {
		return boarding.OfferResponse{}, fmt.Errorf("failed to create offer response: %w", err)
	}
	return resp, nil
}

// LatestAccepted implements boarding.OfferResponseRepository.
func (o *offerResponseRepositoryImpl) LatestAccepted(ctx context.Context, boardingRequestID string) (boarding.OfferResponse, error) {
	q := GetQuerier(ctx, o.db)

	query := `
		SELECT id, boarding_request_id, response_type, preferred_start_date, updated_candidate_info, candidate_message, responded_at
		FROM offer_responses
		WHERE boarding_request_id = $1 AND response_type = 'accepted'
		ORDER BY responded_at DESC
		LIMIT 1
	`

	var resp boarding.OfferResponse
	err := q.QueryRow(ctx, query, boardingRequestID).Scan(
		&resp.ID, &resp.BoardingRequestID, &resp.ResponseType, &resp.PreferredStartDate,
		&resp.UpdatedCandidateInfo, &resp.CandidateMessage, &resp.RespondedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return boarding.OfferResponse{}, boarding.ErrResponseNotFound
		}
		return boarding.OfferResponse{}, fmt.Errorf("failed to get offer response: %w", err)
	}
	return resp, nil
}
