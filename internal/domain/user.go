// internal/domain/user.go
package domain

// User is an independently owned entity; this layer only reads it.
type User struct {
	ID             string
	Email          string
	Username       string
	PhoneNumber    string
	ProfilePicture *string
	Address        string
	Role           string
	FirebaseUID    *string
	AuthProvider   string
	CreatedAt      string
	DeletedAt      *string
}

// EmptyUser is the documented placeholder for an unresolved seller relation.
// All cache-read paths substitute it through this single factory so no nil
// relation ever reaches a caller.
func EmptyUser() User {
	return User{}
}

// IsEmpty reports whether the user is the unresolved placeholder.
func (u User) IsEmpty() bool {
	return u.ID == "" && u.Email == "" && u.Username == ""
}
