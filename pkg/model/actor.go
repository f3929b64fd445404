package model

// Role is the resolved role of an authenticated actor. Identity resolution
// happens upstream (API gateway); services receive the actor already resolved.
type Role string

const (
	RoleInstructor Role = "instructor"
	RoleDirector   Role = "director"
	RoleAdmin      Role = "admin"
)

func (r Role) IsValid() bool {
	switch r {
	case RoleInstructor, RoleDirector, RoleAdmin:
		return true
	}
	return false
}

// Actor is the identity on whose behalf an operation runs.
type Actor struct {
	ID   string `json:"id"`
	Role Role   `json:"role"`
}
