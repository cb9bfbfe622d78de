package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/unrolled/secure"

	"userlist/internal/delivery/http/controllers"
	h "userlist/internal/delivery/http/helpers"
	"userlist/internal/delivery/http/middleware"
	"userlist/internal/domain"
	"userlist/internal/observability"
)

// RouterConfig carries the dependencies of the users API router.
type RouterConfig struct {
	Logger         *slog.Logger
	Users          *controllers.UserController
	Metrics        *observability.Metrics
	// Verifier enables bearer auth on the user routes when set.
	Verifier       domain.TokenVerifier
	AllowedOrigins []string
	// RateLimit is requests per minute per client IP; zero disables limiting.
	RateLimit      int
	Production     bool
}

// NewRouter initializes the HTTP router with all application routes.
func NewRouter(cfg RouterConfig) http.Handler {
	secureMiddleware := secure.New(secure.Options{
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		ReferrerPolicy:     "strict-origin-when-cross-origin",
		SSLRedirect:        cfg.Production,
		SSLProxyHeaders:    map[string]string{"X-Forwarded-Proto": "https"},
		IsDevelopment:      !cfg.Production,
	})

	r := chi.NewRouter()
	r.Use(
		chimw.RealIP,
		chimw.RequestID,
		middleware.Logging(cfg.Logger),
		chimw.Recoverer,
		secureMiddleware.Handler,
		middleware.CORS(cfg.AllowedOrigins),
		cfg.Metrics.Middleware,
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		h.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	r.Group(func(gr chi.Router) {
		if cfg.RateLimit > 0 {
			gr.Use(httprate.Limit(cfg.RateLimit, time.Minute,
				httprate.WithKeyFuncs(httprate.KeyByIP),
				httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
					h.WriteJSONError(w, http.StatusTooManyRequests, h.ErrCodeTooManyRequests, "rate limit exceeded")
				}),
			))
		}
		if cfg.Verifier != nil {
			gr.Use(middleware.RequireAuth(cfg.Verifier, cfg.Logger))
		}
		gr.Get("/users", cfg.Users.ListUsers)
		gr.Get("/users/count", cfg.Users.CountUsers)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		h.WriteJSONError(w, http.StatusNotFound, h.ErrCodeNotFound, "route not found")
	})

	return r
}
