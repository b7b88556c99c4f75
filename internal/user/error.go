package user

import "warehouse-be/internal/apperr"

var (
	ErrUserNotFound = apperr.NotFound("user not found")
	ErrEmailExists  = apperr.Conflict("email already registered")
)
