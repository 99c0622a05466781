package staff

import "errors"

var (
	ErrStaffNotFound = errors.New("staff record not found")
	ErrAlreadyActive = errors.New("candidate already has an active staff record for this client")
)
