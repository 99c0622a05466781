package audit

import "errors"

var (
	ErrBrokenChain       = errors.New("audit trail transition chain is broken")
	ErrNoEntries         = errors.New("no audit entries for entity")
	ErrInvalidEntityType = errors.New("invalid audit entity type")
)
