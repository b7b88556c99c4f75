package user

import (
	"time"

	"warehouse-be/internal/utils"
)

type Role string

const (
	RoleOperator Role = utils.RoleOperator
	RoleAdmin    Role = utils.RoleAdmin
)

func (r Role) Valid() bool {
	return r == RoleOperator || r == RoleAdmin
}

type User struct {
	ID           int64
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
