package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"userlist/internal/delivery/http/helpers"
	"userlist/internal/delivery/http/middleware"
	"userlist/internal/domain"
)

// PageObserver records the size of each served page.
type PageObserver interface {
	ObservePageSize(n int)
}

// UserController serves the paginated user list and its total count.
type UserController struct {
	Logger  *slog.Logger
	Service domain.UserDirectoryService
	// Pages is optional.
	Pages PageObserver
}

// NewUserController creates a UserController with the given logger and service.
func NewUserController(logger *slog.Logger, svc domain.UserDirectoryService) *UserController {
	return &UserController{Logger: logger, Service: svc}
}

// ListUsers godoc
// @Summary List users
// @Description Returns one page of users in stable insertion order as a bare JSON array. An empty array means the offset is past the end.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Page size (default 50, max 500)"
// @Param offset query int false "Number of users to skip (default 0)"
// @Success 200 {array} domain.User
// @Failure 400 {object} helpers.APIResponse "error.code: bad_request"
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users [get]
func (c *UserController) ListUsers(w http.ResponseWriter, r *http.Request) {
	page, errs := helpers.ParsePageRequest(r)
	if len(errs) > 0 {
		helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, strings.Join(errs, "; "))
		return
	}
	users, err := c.Service.ListUsers(r.Context(), page)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidPage) {
			helpers.WriteJSONError(w, http.StatusBadRequest, helpers.ErrCodeBadRequest, err.Error())
			return
		}
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to list users")
		return
	}
	if c.Pages != nil {
		c.Pages.ObservePageSize(len(users))
	}
	c.Logger.DebugContext(r.Context(), "served users page",
		"subject", requestSubject(r),
		"limit", page.Limit,
		"offset", page.Offset,
		"returned", len(users),
	)
	helpers.WriteJSON(w, http.StatusOK, users)
}

// CountUsers godoc
// @Summary Count users
// @Description Returns the total number of users as {"count": N}.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} domain.UserCount
// @Failure 401 {object} helpers.APIResponse "error.code: unauthorized"
// @Failure 500 {object} helpers.APIResponse "error.code: internal_error"
// @Router /users/count [get]
func (c *UserController) CountUsers(w http.ResponseWriter, r *http.Request) {
	count, err := c.Service.CountUsers(r.Context())
	if err != nil {
		c.Logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "method", r.Method, "err", err)
		helpers.WriteJSONError(w, http.StatusInternalServerError, helpers.ErrCodeInternalError, "failed to count users")
		return
	}
	c.Logger.DebugContext(r.Context(), "served user count", "subject", requestSubject(r), "count", count.Count)
	helpers.WriteJSON(w, http.StatusOK, count)
}

// requestSubject returns the authenticated token subject, or "anonymous" when
// the API runs without auth.
func requestSubject(r *http.Request) string {
	if sub, ok := middleware.SubjectFromContext(r.Context()); ok {
		return sub
	}
	return "anonymous"
}
