package helpers

import (
	"fmt"
	"net/http"
	"strconv"

	"userlist/internal/domain"
)

// ParsePageRequest reads limit and offset from the request query string.
// Missing values fall back to defaults and limit is clamped to
// domain.MaxPageSize. Malformed or out-of-range values are reported as
// messages for a 400 response.
func ParsePageRequest(r *http.Request) (domain.PageRequest, []string) {
	var errs []string
	q := r.URL.Query()

	limit := domain.DefaultPageSize
	if s := q.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("limit must be an integer, got %q", s))
		case v < 1:
			errs = append(errs, "limit must be at least 1")
		default:
			limit = min(v, domain.MaxPageSize)
		}
	}

	offset := 0
	if s := q.Get("offset"); s != "" {
		v, err := strconv.Atoi(s)
		switch {
		case err != nil:
			errs = append(errs, fmt.Sprintf("offset must be an integer, got %q", s))
		case v < 0:
			errs = append(errs, "offset must not be negative")
		default:
			offset = v
		}
	}

	return domain.PageRequest{Limit: limit, Offset: offset}, errs
}
