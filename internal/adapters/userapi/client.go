package userapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"userlist/internal/domain"
)

// StatusError is returned when the users API answers with a non-200 status.
type StatusError struct {
	Op      string
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: users api returned status %d: %s", e.Op, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: users api returned status %d", e.Op, e.Code)
}

// Option configures the HTTP fetcher.
type Option func(*userAPIHTTPFetcher)

// WithToken sends the token as a bearer credential on every request.
func WithToken(token string) Option {
	return func(f *userAPIHTTPFetcher) {
		f.token = token
	}
}

type userAPIHTTPFetcher struct {
	client  *http.Client
	baseURL *url.URL
	token   string
}

// NewHTTPFetcher returns a fetcher that calls the users API rooted at baseURL.
func NewHTTPFetcher(baseURL string, client *http.Client, opts ...Option) (domain.UserFetcher, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse users api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("users api url must be http or https, got %q", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	f := &userAPIHTTPFetcher{client: client, baseURL: u}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// userDTO is the wire shape of a user. Children may be absent or null.
type userDTO struct {
	ID        string         `json:"id"`
	FirstName string         `json:"firstName"`
	LastName  string         `json:"lastName"`
	Email     string         `json:"email"`
	Children  *personNameDTO `json:"children"`
}

type personNameDTO struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

func (d userDTO) toDomain() domain.User {
	var children domain.PersonName
	if d.Children != nil {
		children = domain.NewPersonName(d.Children.FirstName, d.Children.LastName, d.Children.Email)
	}
	return domain.NewUser(d.ID, d.FirstName, d.LastName, d.Email, children)
}

type countDTO struct {
	Count *int `json:"count"`
}

type errorEnvelope struct {
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (f *userAPIHTTPFetcher) FetchUsersPage(ctx context.Context, limit, offset int) ([]domain.User, error) {
	if _, err := domain.NewPageRequest(limit, offset); err != nil {
		return nil, err
	}
	u := f.baseURL.JoinPath("users")
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))
	u.RawQuery = q.Encode()

	var page []userDTO
	if err := f.getJSON(ctx, "fetch users page", u, &page); err != nil {
		return nil, err
	}
	users := make([]domain.User, 0, len(page))
	for _, d := range page {
		users = append(users, d.toDomain())
	}
	return users, nil
}

func (f *userAPIHTTPFetcher) FetchUserCount(ctx context.Context) (domain.UserCount, error) {
	var body countDTO
	if err := f.getJSON(ctx, "fetch user count", f.baseURL.JoinPath("users", "count"), &body); err != nil {
		return domain.UserCount{}, err
	}
	if body.Count == nil {
		return domain.UserCount{}, nil
	}
	count, err := domain.NewUserCount(*body.Count)
	if err != nil {
		return domain.UserCount{}, fmt.Errorf("fetch user count: %w", err)
	}
	return count, nil
}

func (f *userAPIHTTPFetcher) getJSON(ctx context.Context, op string, u *url.URL, dest any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("%s: failed to create request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if f.token != "" {
		req.Header.Set("Authorization", "Bearer "+f.token)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		statusErr := &StatusError{Op: op, Code: resp.StatusCode}
		var env errorEnvelope
		if json.NewDecoder(resp.Body).Decode(&env) == nil && env.Error != nil {
			statusErr.Message = env.Error.Message
		}
		return statusErr
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("%s: failed to decode response: %w", op, err)
	}
	return nil
}

// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Code == code
}
