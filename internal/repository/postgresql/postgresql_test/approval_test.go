package postgresql_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/approval"
	"github.com/cmlabs-hris/boarding-backend-go/internal/repository/postgresql"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestApprovalRepository_FindDelegatedTo(t *testing.T) {
	db := openTestDB(t)
	repo := postgresql.NewApprovalRepository(db)
	delegations := postgresql.NewDelegationRepository(db)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	recruiter := uuid.NewString()
	lead := uuid.NewString()
	deputy := uuid.NewString()

	_, err := delegations.Create(ctx, approval.Delegation{
		DelegatorID: lead,
		DelegateID:  deputy,
		ValidFrom:   now.Add(-time.Hour),
		Active:      true,
		CreatedAt:   now,
	})
	require.NoError(t, err)

	pending := func(requestedBy string) approval.ApprovalRequest {
		created, err := repo.Create(ctx, approval.ApprovalRequest{
			Approvable:        approval.Approvable{Kind: approval.KindBoardingBatch, ID: uuid.NewString()},
			Status:            approval.StatusPending,
			CurrentLevel:      1,
			TotalLevels:       1,
			ApproverIDs:       []string{lead},
			RequestedBy:       requestedBy,
			CurrentApproverID: lead,
			Priority:          approval.PriorityNormal,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
		require.NoError(t, err)
		return created
	}

	visible := pending(recruiter)
	pending(lead)
	pending(deputy)

	got, err := repo.FindDelegatedTo(ctx, deputy, now)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, visible.ID, got[0].ID)

	none, err := repo.FindDelegatedTo(ctx, deputy, now.Add(-2*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, none)
}
