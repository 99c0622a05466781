package recruitment

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is a recruitment ticket opened for a client's job structure.
type Ticket struct {
	ID                       string
	ClientID                 string
	ClientCode               string
	JobStructureID           string
	DefaultServiceLocationID *string
	OfficeID                 *string
	Title                    string
	CreatedAt                time.Time
}

type Candidate struct {
	ID       string
	FullName string
	Email    string
	Phone    *string
}

type PersonalInfo struct {
	FullName    string
	Email       string
	Phone       *string
	Gender      *string
	DateOfBirth *time.Time
	Address     *string
	NationalID  *string
}

type EmergencyContact struct {
	Name         string
	Relationship string
	Phone        string
}

type Experience struct {
	CompanyName string
	Position    string
	StartDate   time.Time
	EndDate     *time.Time
	Description *string
}

type Education struct {
	Level          string
	Institution    string
	Major          *string
	GraduationYear *int
}

// CandidateProfile is everything copied onto the staff side at boarding.
type CandidateProfile struct {
	PersonalInfo      PersonalInfo
	EmergencyContacts []EmergencyContact
	Experiences       []Experience
	Education         []Education
}

type BankingInfo struct {
	BankName      string `json:"bank_name"`
	AccountNumber string `json:"account_number"`
	AccountHolder string `json:"account_holder"`
}

type LegalID struct {
	Type   string `json:"type"` // e.g. 'ktp', 'npwp', 'bpjs'
	Number string `json:"number"`
}

// CandidateUpdate is the information a candidate supplies when accepting an
// offer. Stored as JSONB on the offer response.
type CandidateUpdate struct {
	Banking  *BankingInfo `json:"banking,omitempty"`
	LegalIDs []LegalID    `json:"legal_ids,omitempty"`
}

func (u CandidateUpdate) IsEmpty() bool {
	return u.Banking == nil && len(u.LegalIDs) == 0
}

type OfferTemplate struct {
	ID             string
	ClientID       string
	JobStructureID string
	PayGradeID     string
	Name           string
	Body           string
	IsActive       bool
}

type PayGrade struct {
	ID             string
	ClientID       string
	JobStructureID string
	Name           string
	BaseSalary     decimal.Decimal
}
