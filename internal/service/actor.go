package service

const (
	RoleGuest    = "guest"
	RoleOperator = "operator"
	RoleAdmin    = "admin"
	RoleSystem   = "system"
)

// Actor is the authenticated caller on whose behalf an operation runs.
type Actor struct {
	ID   string
	Role string
}

// SystemActor is used by background consumers that apply verifier results.
var SystemActor = Actor{ID: "system:verifier", Role: RoleSystem}

func (a Actor) Privileged() bool {
	return a.Role == RoleOperator || a.Role == RoleAdmin || a.Role == RoleSystem
}

// CanAccess allows the owning guest and privileged staff.
func (a Actor) CanAccess(guestID string) bool {
	return a.Privileged() || (a.ID != "" && a.ID == guestID)
}
