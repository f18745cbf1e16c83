package domain

// Principal is the resolved identity behind a request. The zero value is the
// anonymous principal.
type Principal struct {
	UserID   string
	Username string
	Role     Role
}

// Anonymous returns the unauthenticated principal.
func Anonymous() Principal { return Principal{} }

// NewPrincipal builds an authenticated principal.
func NewPrincipal(userID, username string, role Role) Principal {
	return Principal{UserID: userID, Username: username, Role: role}
}

func (p Principal) Authenticated() bool { return p.UserID != "" && p.Role.Valid() }

func (p Principal) IsAdmin() bool { return p.Authenticated() && p.Role == RoleAdmin }

// Is reports whether the principal is the authenticated user with id userID.
func (p Principal) Is(userID string) bool {
	return p.Authenticated() && userID != "" && p.UserID == userID
}
