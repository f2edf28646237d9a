package models

// AuthContext identifies the caller of a tree operation. It is produced by the
// auth middleware from an already verified token and passed explicitly into
// every operation.
type AuthContext struct {
	UserID         string `json:"user_id"`
	OrganizationID string `json:"organization_id,omitempty"`
}

func (a AuthContext) Authenticated() bool {
	return a.UserID != ""
}

// Scope is the visibility boundary: the organization when the caller acts for
// one, otherwise the caller's own identity.
func (a AuthContext) Scope() string {
	if a.OrganizationID != "" {
		return a.OrganizationID
	}
	return a.UserID
}
