package staff

import (
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type OnboardingMethod string

const (
	MethodFromCandidate OnboardingMethod = "from_candidate"
	MethodManualEntry   OnboardingMethod = "manual_entry"
	MethodBulkUpload    OnboardingMethod = "bulk_upload"
)

// Staff is a materialized employee record.
type Staff struct {
	ID                string
	EmployeeCode      string
	StaffID           string
	CandidateID       *string
	ClientID          string
	JobStructureID    string
	PayGradeID        string
	ServiceLocationID *string
	OfficeID          *string
	EntryDate         time.Time
	BaseSalary        decimal.Decimal
	Status            Status
	OnboardingMethod  OnboardingMethod
	BoardingRequestID *string
	CreatedAt         time.Time
}

// Section names one staff-side copy of candidate data.
type Section string

const (
	SectionPersonalInfo      Section = "personal_info"
	SectionEmergencyContacts Section = "emergency_contacts"
	SectionExperiences       Section = "experiences"
	SectionEducation         Section = "education"
	SectionBanking           Section = "banking"
	SectionLegalIDs          Section = "legal_ids"
)
