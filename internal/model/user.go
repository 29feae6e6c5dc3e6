package model

import "time"

// AvatarPlaceholderURL is assigned to every user record on creation.
// Avatars are never uploaded through this service.
const AvatarPlaceholderURL = "https://img.freepik.com/free-psd/3d-illustration-person-with-sunglasses_23-2149436188.jpg"

// User represents a registered person in the system.
// This is a pure domain model with no database-specific dependencies or tags.
// AccountID is the identity-platform identifier and is distinct from ID, which
// keys the user record itself.
type User struct {
	ID        string    `json:"id"`
	FullName  string    `json:"fullName"`
	Email     string    `json:"email"`
	Avatar    string    `json:"avatar"`
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"created_at"`
}

// Account is the authentication-level identity. An account exists as soon as a
// passcode has been requested for an email, even before sign-up completes.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
