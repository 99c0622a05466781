package recruitment

import "errors"

var (
	ErrTicketNotFound    = errors.New("recruitment ticket not found")
	ErrCandidateNotFound = errors.New("candidate not found")
	ErrTemplateNotFound  = errors.New("no active offer template found")
	ErrPayGradeNotFound  = errors.New("pay grade not found")
	ErrOfficeNotFound    = errors.New("office not found")
)
