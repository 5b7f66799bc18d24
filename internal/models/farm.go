package models

// MembershipStateActive is the farm membership state that grants access.
const MembershipStateActive = "Activo"

// Farm is the resource a user is invited to.
type Farm struct {
	ID          int64   `json:"farm_id"`
	Name        string  `json:"name"`
	Area        float64 `json:"area"`
	AreaUnitID  int64   `json:"area_unit_id"`
	AreaUnit    string  `json:"area_unit"`
	FarmStateID int64   `json:"farm_state_id"`
	FarmState   string  `json:"farm_state"`
}

// FarmMembership links a role assignment to a farm with a membership state.
type FarmMembership struct {
	ID         int64  `json:"user_role_farm_id"`
	UserRoleID int64  `json:"user_role_id"`
	FarmID     int64  `json:"farm_id"`
	StateID    int64  `json:"user_role_farm_state_id"`
	State      string `json:"user_role_farm_state"`
}

// MembershipState is an entry of the farms service membership-state catalog.
type MembershipState struct {
	ID   int64  `json:"user_role_farm_state_id"`
	Name string `json:"name"`
}
