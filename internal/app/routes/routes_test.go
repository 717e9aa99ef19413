package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/tutorlog/sessionlog/internal/app/controllers"
	"github.com/tutorlog/sessionlog/internal/middleware"
	"github.com/tutorlog/sessionlog/internal/pkg/auth"
	"github.com/tutorlog/sessionlog/internal/pkg/metrics"
)

type rejectAll struct{}

func (rejectAll) ValidateSession(string) (*auth.Claims, error) { return nil, auth.ErrInvalidToken }

type upDB struct{}

func (upDB) Ping(context.Context) error { return nil }

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	lgr := zerolog.Nop()
	m := metrics.New()
	router := gin.New()
	SetupRouter(router,
		controllers.NewAuthController(nil, controllers.CookieConfig{}, lgr),
		controllers.NewSessionController(nil, 0, lgr),
		controllers.NewCustomerController(nil, nil, lgr),
		controllers.NewStudentController(nil, lgr),
		controllers.NewSystemController(upDB{}, middleware.NewCSRF("0123456789abcdef", false, 60), lgr),
		middleware.NewAuthMiddleware(rejectAll{}),
		middleware.NewIPRateLimiter("login", 5, 5, m),
		m.Handler(),
	)
	return router
}

func TestSetupRouter_ProtectedRoutesRequireSession(t *testing.T) {
	router := newTestRouter()

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/auth/me"},
		{http.MethodGet, "/api/customers"},
		{http.MethodPost, "/api/customers"},
		{http.MethodPost, "/api/customers/sync"},
		{http.MethodGet, "/api/students"},
		{http.MethodPost, "/api/students"},
		{http.MethodPost, "/sessions/log_session"},
		{http.MethodGet, "/sessions"},
		{http.MethodGet, "/sessions/1"},
		{http.MethodGet, "/sessions/1/proof"},
	} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
	}
}

func TestSetupRouter_PublicRoutes(t *testing.T) {
	router := newTestRouter()

	for _, path := range []string{"/healthz", "/metrics", "/api/csrf"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}
