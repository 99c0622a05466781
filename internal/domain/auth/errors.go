package auth

import "errors"

var (
	ErrInvalidToken           = errors.New("invalid or expired token")
	ErrActorMissing           = errors.New("token does not identify an actor")
	ErrAdminPrivilegeRequired = errors.New("admin privilege required")
)
