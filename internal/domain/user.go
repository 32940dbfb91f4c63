package domain

import (
	"context"
	"time"
)

type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Name         string     `json:"name"`
	Email        string     `json:"email"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

// Principal is the authenticated caller of a single request.
type Principal struct {
	UserID   int64
	Username string
}

// Profile is a user together with live follow counts.
type Profile struct {
	User      *User
	Followers int64
	Following int64
}

type RegisterInput struct {
	Username string
	Password string
	Name     string
	Email    string
}

// ProfilePatch carries only the fields the caller sent.
type ProfilePatch struct {
	Username *string
	Email    *string
	Name     *string
}

// TokenPair is the result of a successful login or refresh.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresIn    time.Duration
	User         *User
}

type UserRepository interface {
	FindByID(ctx context.Context, id int64) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *User) error
	Update(ctx context.Context, user *User) error
	// UpdateLastLogin touches only last_login_at so it never overwrites a
	// concurrent profile change.
	UpdateLastLogin(ctx context.Context, id int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*User, error)
	Login(ctx context.Context, username, password string) (*TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)
	GetProfile(ctx context.Context, userID int64) (*Profile, error)
	UpdateProfile(ctx context.Context, targetID, callerID int64, patch ProfilePatch) (*Profile, error)
}

// TokenProvider signs and verifies opaque credentials for a subject.
type TokenProvider interface {
	Issue(subject string) (string, error)
	Verify(token string) (string, error)
	TTL() time.Duration
}

// PasswordHasher is a one-way password verifier.
type PasswordHasher interface {
	Hash(plain string) (string, error)
	Matches(plain, hash string) bool
}
