package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for user operations.
var (
	ErrInvalidPage   = errors.New("invalid page request")
	ErrInvalidCount  = errors.New("invalid user count")
	ErrInvalidToken  = errors.New("invalid or expired token")
	ErrEmptyUserList = errors.New("no users to insert")
)

// PersonName is the secondary identity embedded in every User (the referred
// contact). It has no lifecycle of its own.
// swagger:model PersonName
type PersonName struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

// NewPersonName returns a PersonName with the given fields.
func NewPersonName(firstName, lastName, email string) PersonName {
	return PersonName{FirstName: firstName, LastName: lastName, Email: email}
}

// IsZero reports whether no field of the name is set.
func (p PersonName) IsZero() bool {
	return p.FirstName == "" && p.LastName == "" && p.Email == ""
}

// User is a user record as served by the users API. Children is always
// materialized; absent wire fields decode to empty strings.
// swagger:model User
type User struct {
	ID        string     `json:"id"`
	FirstName string     `json:"firstName"`
	LastName  string     `json:"lastName"`
	Email     string     `json:"email"`
	Children  PersonName `json:"children"`
}

// NewUser returns a User with the given fields. ID is assigned by the server.
func NewUser(id, firstName, lastName, email string, children PersonName) User {
	return User{
		ID:        id,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		Children:  children,
	}
}

// UserCount is the response of the user count endpoint.
// swagger:model UserCount
type UserCount struct {
	Count int `json:"count"`
}

// NewUserCount returns a UserCount, rejecting negative totals.
func NewUserCount(count int) (UserCount, error) {
	if count < 0 {
		return UserCount{}, ErrInvalidCount
	}
	return UserCount{Count: count}, nil
}

// UserFetcher reads users from the remote users API (or a test double).
// Both calls are stateless and independent of each other.
type UserFetcher interface {
	FetchUsersPage(ctx context.Context, limit, offset int) ([]User, error)
	FetchUserCount(ctx context.Context) (UserCount, error)
}

// UserRepository defines the interface for user storage behind the users API.
type UserRepository interface {
	List(ctx context.Context, page PageRequest) ([]User, error)
	Count(ctx context.Context) (int, error)
	BulkInsert(ctx context.Context, users []User) (int, error)
}

// CountCache caches the total user count. Implementations may be nil-safe no-ops.
type CountCache interface {
	Get(ctx context.Context) (count int, ok bool, err error)
	Set(ctx context.Context, count int) error
	Invalidate(ctx context.Context) error
}

// UserDirectoryService defines the read side served by the users API.
type UserDirectoryService interface {
	ListUsers(ctx context.Context, page PageRequest) ([]User, error)
	CountUsers(ctx context.Context) (UserCount, error)
}

// TokenIssuer issues bearer tokens for API clients.
type TokenIssuer interface {
	Issue(subject string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns its subject.
type TokenVerifier interface {
	Verify(token string) (subject string, err error)
}
