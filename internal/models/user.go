package models

// User is a registered user as returned by the users service.
type User struct {
	ID    int64  `json:"user_id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Caller is the already-authenticated user issuing a request.
type Caller = User

// Role names known to the invitation permission model.
const (
	RoleAdminFarm    = "Administrador de finca"
	RoleOperatorFarm = "Operador de campo"
)

// Permission names attached to role assignments.
const (
	PermissionAddAdministratorFarm = "add_administrator_farm"
	PermissionAddOperatorFarm      = "add_operator_farm"
)

// RoleAssignment ties a user to a role in the users service.
type RoleAssignment struct {
	ID     int64 `json:"user_role_id"`
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id,omitempty"`
}
