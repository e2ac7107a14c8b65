package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	assignmentHandler "vaultbank-service/internal/handlers/assignment"
	complianceHandler "vaultbank-service/internal/handlers/compliance"
	otpHandler "vaultbank-service/internal/handlers/otp"
	wsHandler "vaultbank-service/internal/handlers/websocket"
	"vaultbank-service/internal/middleware"
	"vaultbank-service/internal/pkg/jwt"
	"vaultbank-service/internal/pkg/metrics"
	"vaultbank-service/internal/websocket"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	manager, err := jwt.LoadAndBuild(jwt.Config{Secret: "0123456789abcdef0123456789abcdef", TTL: time.Hour})
	require.NoError(t, err)

	logger := zap.NewNop()
	hub := websocket.NewHub(manager.Verifier, metrics.NewMetrics(prometheus.NewRegistry()), logger)

	r := gin.New()
	SetupRouter(r, logger, &Handlers{
		AssignmentHandler: assignmentHandler.NewAssignmentHandler(nil, nil, logger),
		OTPHandler:        otpHandler.NewOTPHandler(nil, logger),
		ComplianceHandler: complianceHandler.NewComplianceHandler(nil, logger),
		WSHandler:         wsHandler.NewWebSocketHandler(hub, logger),
		AuthMiddleware:    middleware.NewAuthMiddleware(manager.Verifier),
	})
	return r
}

func serve(r *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestHealth(t *testing.T) {
	w := serve(newTestEngine(t), http.MethodGet, "/api/v1/health")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok","version":"1.0.0"}`, w.Body.String())
}

func TestFunctionPreflight(t *testing.T) {
	r := newTestEngine(t)

	for _, path := range []string{
		"/functions/v1/assign-best-agent",
		"/functions/v1/send-otp-email",
		"/functions/v1/send-aml-notification",
	} {
		w := serve(r, http.MethodOptions, path)
		assert.Equal(t, http.StatusNoContent, w.Code, path)
		assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"), path)
	}
}

func TestOTPRoutesRequireToken(t *testing.T) {
	r := newTestEngine(t)

	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/otp/issue").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodPost, "/api/v1/otp/verify").Code)
	assert.Equal(t, http.StatusUnauthorized, serve(r, http.MethodGet, "/api/v1/support/ws/stats").Code)
}

func TestEnqueueWithoutRedis(t *testing.T) {
	w := serve(newTestEngine(t), http.MethodPost, "/functions/v1/enqueue-assignment")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestMetricsExposed(t *testing.T) {
	w := serve(newTestEngine(t), http.MethodGet, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
