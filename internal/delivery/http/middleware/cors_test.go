package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCORS(t *testing.T) {
	tests := []struct {
		name        string
		allowed     []string
		method      string
		origin      string
		wantStatus  int
		wantOrigin  string
		wantMethods string
		nextCalled  bool
	}{
		{
			name:        "preflight allowed origin",
			allowed:     []string{"http://localhost:3000/"},
			method:      http.MethodOptions,
			origin:      "http://localhost:3000",
			wantStatus:  http.StatusNoContent,
			wantOrigin:  "http://localhost:3000",
			wantMethods: corsAllowMethods,
		},
		{
			name:       "preflight unknown origin",
			allowed:    []string{"http://localhost:3000"},
			method:     http.MethodOptions,
			origin:     "http://evil.example",
			wantStatus: http.StatusNoContent,
		},
		{
			name:       "get allowed origin",
			allowed:    []string{"http://localhost:3000"},
			method:     http.MethodGet,
			origin:     "http://localhost:3000",
			wantStatus: http.StatusOK,
			wantOrigin: "http://localhost:3000",
			nextCalled: true,
		},
		{
			name:       "wildcard",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			origin:     "http://anything.example",
			wantStatus: http.StatusOK,
			wantOrigin: "http://anything.example",
			nextCalled: true,
		},
		{
			name:       "no origin header",
			allowed:    []string{"*"},
			method:     http.MethodGet,
			wantStatus: http.StatusOK,
			nextCalled: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				w.WriteHeader(http.StatusOK)
			})
			req := httptest.NewRequest(tt.method, "http://test/users", nil)
			if tt.origin != "" {
				req.Header.Set("Origin", tt.origin)
			}
			rr := httptest.NewRecorder()

			CORS(tt.allowed)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.Equal(t, tt.nextCalled, nextCalled)
			assert.Equal(t, tt.wantOrigin, rr.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, tt.wantMethods, rr.Header().Get("Access-Control-Allow-Methods"))
		})
	}
}
