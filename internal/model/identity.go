package model

// Role: "admin" | "viewer"
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool { return r == RoleAdmin || r == RoleViewer }

// Identity is the authenticated actor of a session.
type Identity struct {
	Username string `json:"username"`
	Role     Role   `json:"role"`
}
