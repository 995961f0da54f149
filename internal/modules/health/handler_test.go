package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"admarket/internal/database"
	"admarket/internal/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func serve(t *testing.T, h *Handler) (int, Response) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	router := gin.New()
	h.RegisterRoutes(router.Group(""))

	resp := httptest.NewRecorder()
	router.ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/health", nil))

	var body Response
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &body))
	return resp.Code, body
}

func mockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{DisableAutomaticPing: true})
	require.NoError(t, err)
	return db, mock
}

func TestHealth_AllHealthy(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing()

	h := NewHandler(logger.Discard()).
		Add("database", func(ctx context.Context) error { return database.Health(ctx, db) })

	code, body := serve(t, h)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "healthy", body.Status)
	assert.Equal(t, "healthy", body.Services["database"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealth_DependencyDown(t *testing.T) {
	db, mock := mockDB(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	h := NewHandler(logger.Discard()).
		Add("database", func(ctx context.Context) error { return database.Health(ctx, db) }).
		Add("redis", func(context.Context) error { return nil })

	code, body := serve(t, h)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Contains(t, body.Services["database"], "connection refused")
	assert.Equal(t, "healthy", body.Services["redis"])
}
