package core

import (
	"fmt"
	"strings"
)

// Role of a user. Librarians and admins manage the catalog and see the full ledger.
type Role string

const (
	RoleReader    Role = "reader"
	RoleLibrarian Role = "librarian"
	RoleAdmin     Role = "admin"
)

// ParseRole maps "" to RoleReader and rejects unknown roles.
func ParseRole(raw string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(raw))) {
	case "", RoleReader:
		return RoleReader, nil
	case RoleLibrarian:
		return RoleLibrarian, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", fmt.Errorf("%w: unknown role %q", ErrValidation, raw)
	}
}

// CanManageCatalog reports whether the role may change books and read the whole ledger.
func (r Role) CanManageCatalog() bool {
	return r == RoleLibrarian || r == RoleAdmin
}

// User is a registered account. Password holds a bcrypt hash, never the plaintext.
type User struct {
	ID       int            `json:"id" db:"id" bson:"_id"`
	Username UsernameString `json:"username" db:"username" bson:"username"`
	Password string         `json:"password" db:"password" bson:"password"`
	Role     Role           `json:"role" db:"role" bson:"role"`
	Email    string         `json:"email" db:"email" bson:"email"`
}

// NormalizeUsername trims surrounding whitespace, the case is kept.
func NormalizeUsername(username string) UsernameString {
	return strings.TrimSpace(username)
}
