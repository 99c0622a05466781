package postgresql_test

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

var (
	testDBOnce sync.Once
	testDB     *database.DB
	testDBErr  error
)

// openTestDB connects to TEST_DATABASE_URL and applies migrations once per
// run. Tests are skipped when no database is configured.
func openTestDB(t *testing.T) *database.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	testDBOnce.Do(func() {
		testDB, testDBErr = database.NewPostgreSQLDB(context.Background(), dsn, database.PoolOptions{MaxConns: 8})
		if testDBErr != nil {
			return
		}
		testDBErr = database.RunMigrations(testDB)
	})
	require.NoError(t, testDBErr)

	truncateAll(t, testDB)
	return testDB
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()
	ctx := context.Background()
	tx, err := db.BeginTx(ctx)
	require.NoError(t, err)
	defer tx.Rollback(ctx)

	// audit_entries and approval_history reject DELETE through triggers but
	// TRUNCATE does not fire row triggers.
	tables := []string{
		"audit_entries",
		"approval_history",
		"approval_delegations",
		"approval_requests",
		"staff_legal_ids",
		"staff_banking",
		"staff_education",
		"staff_experiences",
		"staff_emergency_contacts",
		"staff_personal_info",
		"offer_responses",
		"boarding_requests",
		"staff_records",
		"boarding_batches",
		"candidate_applications",
		"candidate_emergency_contacts",
		"candidate_experiences",
		"candidate_education",
		"candidates",
		"recruitment_tickets",
		"offer_templates",
		"pay_grades",
		"job_structures",
		"offices",
		"service_locations",
		"clients",
	}
	for _, table := range tables {
		_, err := tx.Exec(ctx, fmt.Sprintf("TRUNCATE TABLE %s CASCADE", table))
		require.NoError(t, err, "truncate %s", table)
	}
	require.NoError(t, tx.Commit(ctx))
}

type seed struct {
	ClientID    string
	JobID       string
	PayGradeID  string
	TemplateID  string
	TicketID    string
	CandidateID string
	ActorID     string
}

func seedRecruitment(t *testing.T, db *database.DB) seed {
	t.Helper()
	ctx := context.Background()
	var s seed

	require.NoError(t, db.QueryRow(ctx, `INSERT INTO clients (code, name) VALUES ('ACME', 'Acme Corp') RETURNING id`).Scan(&s.ClientID))
	require.NoError(t, db.QueryRow(ctx, `INSERT INTO job_structures (client_id, name) VALUES ($1, 'Operator') RETURNING id`, s.ClientID).Scan(&s.JobID))
	require.NoError(t, db.QueryRow(ctx, `
		INSERT INTO pay_grades (client_id, job_structure_id, name, base_salary) VALUES ($1, $2, 'G1', 5500000) RETURNING id
	`, s.ClientID, s.JobID).Scan(&s.PayGradeID))
	require.NoError(t, db.QueryRow(ctx, `
		INSERT INTO offer_templates (client_id, job_structure_id, pay_grade_id, name) VALUES ($1, $2, $3, 'Offer') RETURNING id
	`, s.ClientID, s.JobID, s.PayGradeID).Scan(&s.TemplateID))
	require.NoError(t, db.QueryRow(ctx, `
		INSERT INTO recruitment_tickets (client_id, job_structure_id, title) VALUES ($1, $2, 'Operators') RETURNING id
	`, s.ClientID, s.JobID).Scan(&s.TicketID))
	require.NoError(t, db.QueryRow(ctx, `
		INSERT INTO candidates (full_name, email) VALUES ('Candidate A', 'a@example.com') RETURNING id
	`).Scan(&s.CandidateID))
	require.NoError(t, db.QueryRow(ctx, `SELECT gen_random_uuid()::text`).Scan(&s.ActorID))

	return s
}
