package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/staff"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/codegen"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

const staffColumns = `
	id, employee_code, staff_id, candidate_id, client_id, job_structure_id, pay_grade_id,
	service_location_id, office_id, entry_date, base_salary, status, onboarding_method,
	boarding_request_id, created_at`

var codeColumns = map[codegen.Field]string{
	codegen.FieldStaffID:      "staff_id",
	codegen.FieldEmployeeCode: "employee_code",
}

var sectionTables = map[staff.Section]string{
	staff.SectionPersonalInfo:      "staff_personal_info",
	staff.SectionEmergencyContacts: "staff_emergency_contacts",
	staff.SectionExperiences:       "staff_experiences",
	staff.SectionEducation:         "staff_education",
	staff.SectionBanking:           "staff_banking",
	staff.SectionLegalIDs:          "staff_legal_ids",
}

type staffRepositoryImpl struct {
	db *database.DB
}

func NewStaffRepository(db *database.DB) staff.StaffRepository {
	return &staffRepositoryImpl{db: db}
}

func scanStaff(row pgx.Row) (staff.Staff, error) {
	var s staff.Staff
	err := row.Scan(
		&s.ID, &s.EmployeeCode, &s.StaffID, &s.CandidateID, &s.ClientID, &s.JobStructureID, &s.PayGradeID,
		&s.ServiceLocationID, &s.OfficeID, &s.EntryDate, &s.BaseSalary, &s.Status, &s.OnboardingMethod,
		&s.BoardingRequestID, &s.CreatedAt,
	)
	return s, err
}

// FindMaxCodeWithPrefix implements codegen.MaxCodeFinder. Only codes with an
// all-digit suffix count, compared by numeric value so a sequence that outgrew
// its width still wins.
func (r *staffRepositoryImpl) FindMaxCodeWithPrefix(ctx context.Context, field codegen.Field, prefix, scope string) (string, error) {
	column, ok := codeColumns[field]
	if !ok {
		return "", fmt.Errorf("unknown code field %q", field)
	}
	q := GetQuerier(ctx, r.db)

	args := []any{prefix}
	query := fmt.Sprintf(`
		SELECT %[1]s FROM staff_records
		WHERE left(%[1]s, length($1)) = $1
		  AND substring(%[1]s from length($1) + 1) ~ '^[0-9]+$'`, column)
	if scope != "" {
		query += ` AND client_id = $2`
		args = append(args, scope)
	}
	query += fmt.Sprintf(` ORDER BY substring(%[1]s from length($1) + 1)::numeric DESC, %[1]s DESC LIMIT 1`, column)

	var code string
	if err := q.QueryRow(ctx, query, args...).Scan(&code); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to find max %s: %w", column, err)
	}
	return code, nil
}

// FindActiveByCandidateAndClient implements staff.StaffRepository.
func (r *staffRepositoryImpl) FindActiveByCandidateAndClient(ctx context.Context, candidateID, clientID string) (staff.Staff, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + staffColumns + ` FROM staff_records WHERE candidate_id = $1 AND client_id = $2 AND status = 'active'`

	s, err := scanStaff(q.QueryRow(ctx, query, candidateID, clientID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to find active staff record: %w", err)
	}
	return s, nil
}

// Create implements staff.StaffRepository.
func (r *staffRepositoryImpl) Create(ctx context.Context, s staff.Staff) (staff.Staff, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_records (
			employee_code, staff_id, candidate_id, client_id, job_structure_id, pay_grade_id,
			service_location_id, office_id, entry_date, base_salary, status, onboarding_method,
			boarding_request_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING ` + staffColumns

	created, err := scanStaff(q.QueryRow(ctx, query,
		s.EmployeeCode, s.StaffID, s.CandidateID, s.ClientID, s.JobStructureID, s.PayGradeID,
		s.ServiceLocationID, s.OfficeID, s.EntryDate, s.BaseSalary, s.Status, s.OnboardingMethod,
		s.BoardingRequestID, s.CreatedAt,
	))
	if err != nil {
		if name, ok := uniqueViolationOn(err); ok {
			switch name {
			case "uq_staff_records_employee_code", "uq_staff_records_staff_id":
				return staff.Staff{}, fmt.Errorf("%w: %s", codegen.ErrCodeConflict, name)
			case "uq_staff_records_active_candidate_client":
				return staff.Staff{}, staff.ErrAlreadyActive
			}
		}
		return staff.Staff{}, fmt.Errorf("failed to create staff record: %w", err)
	}
	return created, nil
}

// GetByID implements staff.StaffRepository.
func (r *staffRepositoryImpl) GetByID(ctx context.Context, id string) (staff.Staff, error) {
	q := GetQuerier(ctx, r.db)

	s, err := scanStaff(q.QueryRow(ctx, `SELECT `+staffColumns+` FROM staff_records WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return staff.Staff{}, staff.ErrStaffNotFound
		}
		return staff.Staff{}, fmt.Errorf("failed to get staff record %s: %w", id, err)
	}
	return s, nil
}

// HasProfileData implements staff.StaffRepository.
func (r *staffRepositoryImpl) HasProfileData(ctx context.Context, staffRecordID string, section staff.Section) (bool, error) {
	table, ok := sectionTables[section]
	if !ok {
		return false, fmt.Errorf("unknown staff section %q", section)
	}
	q := GetQuerier(ctx, r.db)

	var exists bool
	query := fmt.Sprintf(`SELECT EXISTS (SELECT 1 FROM %s WHERE staff_record_id = $1)`, table)
	if err := q.QueryRow(ctx, query, staffRecordID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check %s: %w", table, err)
	}
	return exists, nil
}

// SavePersonalInfo implements staff.StaffRepository.
func (r *staffRepositoryImpl) SavePersonalInfo(ctx context.Context, staffRecordID string, info recruitment.PersonalInfo) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_personal_info (staff_record_id, full_name, email, phone, gender, date_of_birth, address, national_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (staff_record_id) DO NOTHING
	`

	_, err := q.Exec(ctx, query,
		staffRecordID, info.FullName, info.Email, info.Phone, info.Gender, info.DateOfBirth, info.Address, info.NationalID,
	)
	if err != nil {
		return fmt.Errorf("failed to save personal info: %w", err)
	}
	return nil
}

// SaveEmergencyContacts implements staff.StaffRepository.
func (r *staffRepositoryImpl) SaveEmergencyContacts(ctx context.Context, staffRecordID string, contacts []recruitment.EmergencyContact) error {
	q := GetQuerier(ctx, r.db)

	query := `INSERT INTO staff_emergency_contacts (staff_record_id, name, relationship, phone) VALUES ($1, $2, $3, $4)`
	for _, c := range contacts {
		if _, err := q.Exec(ctx, query, staffRecordID, c.Name, c.Relationship, c.Phone); err != nil {
			return fmt.Errorf("failed to save emergency contact: %w", err)
		}
	}
	return nil
}

// SaveExperiences implements staff.StaffRepository.
func (r *staffRepositoryImpl) SaveExperiences(ctx context.Context, staffRecordID string, experiences []recruitment.Experience) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_experiences (staff_record_id, company_name, position, start_date, end_date, description)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	for _, e := range experiences {
		if _, err := q.Exec(ctx, query, staffRecordID, e.CompanyName, e.Position, e.StartDate, e.EndDate, e.Description); err != nil {
			return fmt.Errorf("failed to save experience: %w", err)
		}
	}
	return nil
}

// SaveEducation implements staff.StaffRepository.
func (r *staffRepositoryImpl) SaveEducation(ctx context.Context, staffRecordID string, education []recruitment.Education) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_education (staff_record_id, level, institution, major, graduation_year)
		VALUES ($1, $2, $3, $4, $5)
	`
	for _, e := range education {
		if _, err := q.Exec(ctx, query, staffRecordID, e.Level, e.Institution, e.Major, e.GraduationYear); err != nil {
			return fmt.Errorf("failed to save education: %w", err)
		}
	}
	return nil
}

// SaveBanking implements staff.StaffRepository.
func (r *staffRepositoryImpl) SaveBanking(ctx context.Context, staffRecordID string, banking recruitment.BankingInfo) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_banking (staff_record_id, bank_name, account_number, account_holder)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (staff_record_id) DO NOTHING
	`
	if _, err := q.Exec(ctx, query, staffRecordID, banking.BankName, banking.AccountNumber, banking.AccountHolder); err != nil {
		return fmt.Errorf("failed to save banking: %w", err)
	}
	return nil
}

// SaveLegalIDs implements staff.StaffRepository.
func (r *staffRepositoryImpl) SaveLegalIDs(ctx context.Context, staffRecordID string, ids []recruitment.LegalID) error {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO staff_legal_ids (staff_record_id, id_type, id_number)
		VALUES ($1, $2, $3)
		ON CONFLICT (staff_record_id, id_type) DO NOTHING
	`
	for _, id := range ids {
		if _, err := q.Exec(ctx, query, staffRecordID, id.Type, id.Number); err != nil {
			return fmt.Errorf("failed to save legal id %s: %w", id.Type, err)
		}
	}
	return nil
}
