package utils

const (
	identityKey contextKey = "identity"
)

const (
	RoleOperator = "operator"
	RoleAdmin    = "admin"
)
