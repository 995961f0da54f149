package booking

import (
	"bytes"
	"context"
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
	tokens := jwt.New("handler-test-secret", time.Hour)
	h := NewHandler(env.svc, logger.Discard(), 20)

	router := gin.New()
	api := router.Group("/api/v1")
	h.RegisterPublicRoutes(api)
	protected := api.Group("")
	protected.Use(middleware.JWTAuth(tokens))
	h.RegisterRoutes(protected)

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

func ownerToken(t *testing.T, tokens *jwt.Service, env *testEnv) string {
	t.Helper()
	token, err := tokens.GenerateToken(env.owner.ID, string(domain.RoleAdvertiser))
	require.NoError(t, err)
	return token
}

func TestHandler_CreateBooking(t *testing.T) {
	router, env, tokens := setupRouter(t)

	resp, body := performRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"placement_id":        env.placement.ID,
		"ad_id":               env.ad.ID,
		"start_date":          "2024-01-01",
		"end_date":            "2024-01-04",
		"discount_percentage": "10",
		"final_price":         "0.01",
	}, ownerToken(t, tokens, env))

	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())
	var data struct {
		Booking BookingResponse `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	assert.Equal(t, "2024-01-01", data.Booking.StartDate)
	assert.Equal(t, 4, data.Booking.TotalDays)
	assert.Equal(t, "200.00", data.Booking.TotalPrice)
	assert.Equal(t, "180.00", data.Booking.FinalPrice)
	assert.Equal(t, domain.BookingPending, data.Booking.Status)
}

func TestHandler_CreateBooking_Conflict(t *testing.T) {
	router, env, tokens := setupRouter(t)
	first := env.mustCreate(t, "2024-03-01", "2024-03-10")
	_, err := env.svc.Confirm(context.Background(), first.ID)
	require.NoError(t, err)

	resp, body := performRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"placement_id": env.placement.ID,
		"ad_id":        env.ad.ID,
		"start_date":   "2024-03-05",
		"end_date":     "2024-03-07",
	}, ownerToken(t, tokens, env))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "BOOKING_CONFLICT", body.Error.Code)
	assert.Contains(t, body.Error.Details, "dates")
	conflicts, ok := body.Error.Details["conflicting_bookings"].([]any)
	require.True(t, ok)
	assert.Len(t, conflicts, 1)
}

func TestHandler_CreateBooking_BadRange(t *testing.T) {
	router, env, tokens := setupRouter(t)

	resp, body := performRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"placement_id": env.placement.ID,
		"ad_id":        env.ad.ID,
		"start_date":   "2024-03-07",
		"end_date":     "2024-03-05",
	}, ownerToken(t, tokens, env))

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "VALIDATION_ERROR", body.Error.Code)
	assert.Contains(t, body.Error.Details, "dates")
}

func TestHandler_CreateBooking_RequiresAuth(t *testing.T) {
	router, env, _ := setupRouter(t)

	resp, _ := performRequest(router, http.MethodPost, "/api/v1/bookings", map[string]interface{}{
		"placement_id": env.placement.ID,
		"ad_id":        env.ad.ID,
		"start_date":   "2024-03-01",
		"end_date":     "2024-03-02",
	}, "")

	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestHandler_CancelTwice(t *testing.T) {
	router, env, tokens := setupRouter(t)
	b := env.mustCreate(t, "2024-04-01", "2024-04-03")
	token := ownerToken(t, tokens, env)
	path := "/api/v1/bookings/" + itoa(b.ID) + "/cancel"

	resp, _ := performRequest(router, http.MethodPost, path, map[string]string{"reason": "budget"}, token)
	assert.Equal(t, http.StatusOK, resp.Code)

	resp, body := performRequest(router, http.MethodPost, path, nil, token)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_TRANSITION", body.Error.Code)
}

func TestHandler_Calendar(t *testing.T) {
	router, env, _ := setupRouter(t)
	b := env.mustCreate(t, "2024-06-01", "2024-06-05")
	_, err := env.svc.Confirm(context.Background(), b.ID)
	require.NoError(t, err)

	resp, body := performRequest(router, http.MethodGet,
		"/api/v1/bookings/calendar?placement_id="+itoa(env.placement.ID)+"&start_date=2024-06-03&end_date=2024-06-10", nil, "")

	require.Equal(t, http.StatusOK, resp.Code)
	var data struct {
		Bookings []CalendarEntryResponse `json:"bookings"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &data))
	require.Len(t, data.Bookings, 1)
	assert.Equal(t, "2024-06-01", data.Bookings[0].StartDate)
	assert.Equal(t, "2024-06-05", data.Bookings[0].EndDate)

	resp, body = performRequest(router, http.MethodGet, "/api/v1/bookings/calendar?placement_id=abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, "INVALID_ID", body.Error.Code)
}

func TestHandler_ListAndStatistics(t *testing.T) {
	router, env, tokens := setupRouter(t)
	env.mustCreate(t, "2024-01-01", "2024-01-02")
	token := ownerToken(t, tokens, env)

	resp, body := performRequest(router, http.MethodGet, "/api/v1/bookings?page=1&limit=5", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var page struct {
		Items []BookingResponse `json:"items"`
		Total int64             `json:"total"`
		Limit int               `json:"limit"`
	}
	require.NoError(t, json.Unmarshal(body.Data, &page))
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 5, page.Limit)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "Spring Sale", page.Items[0].AdTitle)

	resp, body = performRequest(router, http.MethodGet, "/api/v1/bookings/my-statistics", nil, token)
	require.Equal(t, http.StatusOK, resp.Code)
	var stats Statistics
	require.NoError(t, json.Unmarshal(body.Data, &stats))
	assert.EqualValues(t, 1, stats.Pending)
	assert.Equal(t, "0.00", stats.TotalRevenue)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
