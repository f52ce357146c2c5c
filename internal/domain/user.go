package domain

import (
	"context"
	"io"
	"time"
)

// UserType is fixed at registration.
type UserType string

const (
	UserTypeStudent   UserType = "student"
	UserTypeOrganizer UserType = "organizer"
)

// User represents a registered user.
// swagger:model User
type User struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	Email       string    `json:"email"`
	Photo       string    `json:"photo"`
	Type        UserType  `json:"type"`
	Connections []string  `json:"connections"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Profile is the subset of User exposed by the profile endpoints.
// swagger:model Profile
type Profile struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	Photo     string   `json:"photo"`
	Type      UserType `json:"type"`
}

// ProfileOf projects a User onto its Profile.
func ProfileOf(u *User) *Profile {
	return &Profile{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Email:     u.Email,
		Photo:     u.Photo,
		Type:      u.Type,
	}
}

// ProfileUpdate carries the text fields of a profile update.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Email     string
}

// ProfilePolicy decides which profile fields callers may change.
type ProfilePolicy struct {
	EmailEditable bool
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, roles []string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	UpdateProfile(ctx context.Context, id string, update ProfileUpdate, updatedAt time.Time) (*User, error)
	// SwapPhoto sets the photo reference and returns the updated user and the previous reference.
	SwapPhoto(ctx context.Context, id, photo string, updatedAt time.Time) (user *User, previous string, err error)
	ListOthers(ctx context.Context, excludeID string, limit int) ([]*User, error)
	// AddConnection adds targetID to the user's connections; added is false when already present.
	AddConnection(ctx context.Context, userID, targetID string) (added bool, err error)
}

// BlobStore is an opaque file store keyed by name.
type BlobStore interface {
	Save(ctx context.Context, name string, r io.Reader) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}

// ProfileService covers profile reads/updates, photos, suggestions and connections.
type ProfileService interface {
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (*Profile, error)
	UpdatePhoto(ctx context.Context, userID, filename string, r io.Reader) (*Profile, error)
	ListSuggestions(ctx context.Context, userID string) ([]*Profile, error)
	AddConnection(ctx context.Context, userID, targetID string) error
	OpenPhoto(ctx context.Context, name string) (io.ReadCloser, error)
}
