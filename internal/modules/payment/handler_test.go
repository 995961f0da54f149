package payment

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"admarket/internal/domain"
	"admarket/internal/logger"
	"admarket/internal/middleware"
	"admarket/internal/pkg/jwt"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func setupRouter(t *testing.T) (*gin.Engine, *testEnv, *jwt.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	env := setupEnv(t)
	tokens := jwt.New("payment-test-secret", time.Hour)
	h := NewHandler(env.svc, logger.Discard(), 20)

	router := gin.New()
	api := router.Group("/api/v1")
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	h.RegisterRoutes(protected)
	staff := api.Group("")
	staff.Use(middleware.JWTAuth(tokens), middleware.StaffOnly())
	h.RegisterStaffRoutes(staff)

	return router, env, tokens
}

func performRequest(router *gin.Engine, method, path string, body interface{}, token string) (*httptest.ResponseRecorder, envelope) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, req)

	var env envelope
	_ = json.Unmarshal(resp.Body.Bytes(), &env)
	return resp, env
}

func tokenFor(t *testing.T, tokens *jwt.Service, id int64, role domain.UserRole) string {
	t.Helper()
	token, err := tokens.GenerateToken(id, string(role))
	require.NoError(t, err)
	return token
}

func TestHandler_PayAndRefund(t *testing.T) {
	router, env, tokens := setupRouter(t)
	owner := tokenFor(t, tokens, env.owner.ID, domain.RoleAdvertiser)
	admin := tokenFor(t, tokens, 999, domain.RoleAdmin)
	b := env.book(t, "2024-04-01", "2024-04-03")

	resp, body := performRequest(router, http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"booking_id":     b.ID,
		"payment_method": "paypal",
	}, owner)
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var created struct {
		Payment PaymentResponse `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, "60.00", created.Payment.Amount)
	assert.Equal(t, domain.PaymentCompleted, created.Payment.Status)

	id := strconv.FormatInt(created.Payment.ID, 10)
	resp, _ = performRequest(router, http.MethodGet, "/api/v1/payments/"+id, nil, owner)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, _ = performRequest(router, http.MethodGet, "/api/v1/payments", nil, owner)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, _ = performRequest(router, http.MethodPost, "/api/v1/admin/payments/"+id+"/refund", nil, owner)
	assert.Equal(t, http.StatusForbidden, resp.Code)

	resp, body = performRequest(router, http.MethodPost, "/api/v1/admin/payments/"+id+"/refund", map[string]string{"reason": "duplicate"}, admin)
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())
	require.NoError(t, json.Unmarshal(body.Data, &created))
	assert.Equal(t, domain.PaymentRefunded, created.Payment.Status)
}

func TestHandler_PayValidation(t *testing.T) {
	router, env, tokens := setupRouter(t)
	owner := tokenFor(t, tokens, env.owner.ID, domain.RoleAdvertiser)
	b := env.book(t, "2024-04-01", "2024-04-03")

	resp, body := performRequest(router, http.MethodPost, "/api/v1/payments", map[string]interface{}{
		"booking_id":     b.ID,
		"payment_method": "paypal",
		"amount":         "1.00",
	}, owner)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Details, "amount")

	resp, _ = performRequest(router, http.MethodPost, "/api/v1/payments", map[string]interface{}{"booking_id": b.ID}, "")
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}
