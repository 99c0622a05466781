package staff

import (
	"context"

	"github.com/cmlabs-hris/boarding-backend-go/internal/domain/recruitment"
	"github.com/cmlabs-hris/boarding-backend-go/internal/pkg/codegen"
)

type StaffRepository interface {
	codegen.MaxCodeFinder

	FindActiveByCandidateAndClient(ctx context.Context, candidateID, clientID string) (Staff, error)
	// Create returns codegen.ErrCodeConflict when a generated code is already
	// taken and ErrAlreadyActive when the active candidate/client guard trips.
	Create(ctx context.Context, s Staff) (Staff, error)
	GetByID(ctx context.Context, id string) (Staff, error)

	HasProfileData(ctx context.Context, staffRecordID string, section Section) (bool, error)
	SavePersonalInfo(ctx context.Context, staffRecordID string, info recruitment.PersonalInfo) error
	SaveEmergencyContacts(ctx context.Context, staffRecordID string, contacts []recruitment.EmergencyContact) error
	SaveExperiences(ctx context.Context, staffRecordID string, experiences []recruitment.Experience) error
	SaveEducation(ctx context.Context, staffRecordID string, education []recruitment.Education) error
	SaveBanking(ctx context.Context, staffRecordID string, banking recruitment.BankingInfo) error
	SaveLegalIDs(ctx context.Context, staffRecordID string, ids []recruitment.LegalID) error
}
