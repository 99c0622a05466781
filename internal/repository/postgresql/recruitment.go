package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

// Recruitment tables are owned by the recruitment system; these repositories
// only read them.

type ticketRepositoryImpl struct {
	db *database.DB
}

func NewTicketRepository(db *database.DB) recruitment.TicketRepository {
	return &ticketRepositoryImpl{db: db}
}

// GetByID implements recruitment.TicketRepository.
func (r *ticketRepositoryImpl) GetByID(ctx context.Context, id string) (recruitment.Ticket, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT t.id, t.client_id, c.code, t.job_structure_id, t.default_service_location_id, t.office_id, t.title, t.created_at
		FROM recruitment_tickets t
		JOIN clients c ON c.id = t.client_id
		WHERE t.id = $1
	`

	var t recruitment.Ticket
	err := q.QueryRow(ctx, query, id).Scan(
		&t.ID, &t.ClientID, &t.ClientCode, &t.JobStructureID, &t.DefaultServiceLocationID, &t.OfficeID, &t.Title, &t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recruitment.Ticket{}, recruitment.ErrTicketNotFound
		}
		return recruitment.Ticket{}, fmt.Errorf("failed to get ticket %s: %w", id, err)
	}
	return t, nil
}

type candidateRepositoryImpl struct {
	db *database.DB
}

func NewCandidateRepository(db *database.DB) recruitment.CandidateRepository {
	return &candidateRepositoryImpl{db: db}
}

// GetByID implements recruitment.CandidateRepository.
func (r *candidateRepositoryImpl) GetByID(ctx context.Context, id string) (recruitment.Candidate, error) {
	q := GetQuerier(ctx, r.db)

	var c recruitment.Candidate
	err := q.QueryRow(ctx, `SELECT id, full_name, email, phone FROM candidates WHERE id = $1`, id).
		Scan(&c.ID, &c.FullName, &c.Email, &c.Phone)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recruitment.Candidate{}, recruitment.ErrCandidateNotFound
		}
		return recruitment.Candidate{}, fmt.Errorf("failed to get candidate %s: %w", id, err)
	}
	return c, nil
}

// GetProfile implements recruitment.CandidateRepository.
func (r *candidateRepositoryImpl) GetProfile(ctx context.Context, candidateID string) (recruitment.CandidateProfile, error) {
	q := GetQuerier(ctx, r.db)
	var p recruitment.CandidateProfile

	info := &p.PersonalInfo
	err := q.QueryRow(ctx, `
		SELECT full_name, email, phone, gender, date_of_birth, address, national_id
		FROM candidates WHERE id = $1
	`, candidateID).Scan(&info.FullName, &info.Email, &info.Phone, &info.Gender, &info.DateOfBirth, &info.Address, &info.NationalID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return p, recruitment.ErrCandidateNotFound
		}
		return p, fmt.Errorf("failed to get candidate profile %s: %w", candidateID, err)
	}

	rows, err := q.Query(ctx, `SELECT name, relationship, phone FROM candidate_emergency_contacts WHERE candidate_id = $1 ORDER BY name`, candidateID)
	if err != nil {
		return p, fmt.Errorf("failed to get emergency contacts: %w", err)
	}
	p.EmergencyContacts, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (recruitment.EmergencyContact, error) {
		var c recruitment.EmergencyContact
		err := row.Scan(&c.Name, &c.Relationship, &c.Phone)
		return c, err
	})
	if err != nil {
		return p, fmt.Errorf("failed to scan emergency contacts: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT company_name, position, start_date, end_date, description
		FROM candidate_experiences WHERE candidate_id = $1 ORDER BY start_date
	`, candidateID)
	if err != nil {
		return p, fmt.Errorf("failed to get experiences: %w", err)
	}
	p.Experiences, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (recruitment.Experience, error) {
		var e recruitment.Experience
		err := row.Scan(&e.CompanyName, &e.Position, &e.StartDate, &e.EndDate, &e.Description)
		return e, err
	})
	if err != nil {
		return p, fmt.Errorf("failed to scan experiences: %w", err)
	}

	rows, err = q.Query(ctx, `
		SELECT level, institution, major, graduation_year
		FROM candidate_education WHERE candidate_id = $1 ORDER BY graduation_year NULLS LAST
	`, candidateID)
	if err != nil {
		return p, fmt.Errorf("failed to get education: %w", err)
	}
	p.Education, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (recruitment.Education, error) {
		var e recruitment.Education
		err := row.Scan(&e.Level, &e.Institution, &e.Major, &e.GraduationYear)
		return e, err
	})
	if err != nil {
		return p, fmt.Errorf("failed to scan education: %w", err)
	}

	return p, nil
}

// GetApplicationLocation implements recruitment.CandidateRepository.
func (r *candidateRepositoryImpl) GetApplicationLocation(ctx context.Context, candidateID, ticketID string) (*string, error) {
	q := GetQuerier(ctx, r.db)

	var location *string
	err := q.QueryRow(ctx, `
		SELECT service_location_id FROM candidate_applications
		WHERE candidate_id = $1 AND ticket_id = $2
	`, candidateID, ticketID).Scan(&location)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get application location: %w", err)
	}
	return location, nil
}

type templateRepositoryImpl struct {
	db *database.DB
}

func NewTemplateRepository(db *database.DB) recruitment.TemplateRepository {
	return &templateRepositoryImpl{db: db}
}

// FindActiveTemplate implements recruitment.TemplateRepository. The newest
// active template wins when more than one matches.
func (r *templateRepositoryImpl) FindActiveTemplate(ctx context.Context, clientID, jobStructureID, payGradeID string) (recruitment.OfferTemplate, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, client_id, job_structure_id, pay_grade_id, name, body, is_active
		FROM offer_templates
		WHERE client_id = $1 AND job_structure_id = $2 AND pay_grade_id = $3 AND is_active
		ORDER BY updated_at DESC
		LIMIT 1
	`

	var t recruitment.OfferTemplate
	err := q.QueryRow(ctx, query, clientID, jobStructureID, payGradeID).Scan(
		&t.ID, &t.ClientID, &t.JobStructureID, &t.PayGradeID, &t.Name, &t.Body, &t.IsActive,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recruitment.OfferTemplate{}, recruitment.ErrTemplateNotFound
		}
		return recruitment.OfferTemplate{}, fmt.Errorf("failed to find offer template: %w", err)
	}
	return t, nil
}

type payGradeRepositoryImpl struct {
	db *database.DB
}

func NewPayGradeRepository(db *database.DB) recruitment.PayGradeRepository {
	return &payGradeRepositoryImpl{db: db}
}

// GetByID implements recruitment.PayGradeRepository.
func (r *payGradeRepositoryImpl) GetByID(ctx context.Context, id string) (recruitment.PayGrade, error) {
	q := GetQuerier(ctx, r.db)

	var p recruitment.PayGrade
	err := q.QueryRow(ctx, `
		SELECT id, client_id, job_structure_id, name, base_salary FROM pay_grades WHERE id = $1
	`, id).Scan(&p.ID, &p.ClientID, &p.JobStructureID, &p.Name, &p.BaseSalary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return recruitment.PayGrade{}, recruitment.ErrPayGradeNotFound
		}
		return recruitment.PayGrade{}, fmt.Errorf("failed to get pay grade %s: %w", id, err)
	}
	return p, nil
}

type officeRepositoryImpl struct {
	db *database.DB
}

func NewOfficeRepository(db *database.DB) recruitment.OfficeRepository {
	return &officeRepositoryImpl{db: db}
}

// FindByServiceLocation implements recruitment.OfficeRepository.
func (r *officeRepositoryImpl) FindByServiceLocation(ctx context.Context, clientID, serviceLocationID string) (string, error) {
	q := GetQuerier(ctx, r.db)

	var id string
	err := q.QueryRow(ctx, `
		SELECT id FROM offices
		WHERE client_id = $1 AND service_location_id = $2
		ORDER BY created_at
		LIMIT 1
	`, clientID, serviceLocationID).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", recruitment.ErrOfficeNotFound
		}
		return "", fmt.Errorf("failed to find office: %w", err)
	}
	return id, nil
}
