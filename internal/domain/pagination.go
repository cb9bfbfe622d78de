package domain

import "fmt"

// Paging defaults and limits shared by the client and the users API.
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// PageRequest holds offset-based pagination parameters for list queries.
type PageRequest struct {
	Limit  int
	Offset int
}

// NewPageRequest returns a validated PageRequest.
func NewPageRequest(limit, offset int) (PageRequest, error) {
	p := PageRequest{Limit: limit, Offset: offset}
	if err := p.Validate(); err != nil {
		return PageRequest{}, err
	}
	return p, nil
}

// Validate reports ErrInvalidPage when limit is not positive or offset is negative.
func (p PageRequest) Validate() error {
	if p.Limit <= 0 {
		return fmt.Errorf("%w: limit must be positive, got %d", ErrInvalidPage, p.Limit)
	}
	if p.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative, got %d", ErrInvalidPage, p.Offset)
	}
	return nil
}
