package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/erp/resale/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHealthTestRouter(h *HealthHandler) *gin.Engine {
	router := gin.New()
	h.RegisterRoutes(router)
	return router
}

func TestHealthHandler_Live(t *testing.T) {
	h := NewHealthHandler("resale-erp", "1.2.3")
	router := setupHealthTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeAs[HealthResponse](t, w)
	assert.True(t, resp.Success)
	assert.Equal(t, "ok", resp.Data.Status)
	assert.Equal(t, "resale-erp", resp.Data.Name)
	assert.Equal(t, "1.2.3", resp.Data.Version)
	assert.NotEmpty(t, resp.Data.GoVersion)
}

func TestHealthHandler_Ready(t *testing.T) {
	h := NewHealthHandler("resale-erp", "1.2.3").
		AddCheck("database", ReadinessCheckFunc(func(ctx context.Context) error {
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		}))
	router := setupHealthTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	resp := decodeAs[HealthResponse](t, w)
	assert.Equal(t, map[string]string{"database": "ok"}, resp.Data.Checks)
}

func TestHealthHandler_NotReady(t *testing.T) {
	h := NewHealthHandler("resale-erp", "1.2.3").
		AddCheck("database", ReadinessCheckFunc(func(context.Context) error {
			return errors.New("connection refused")
		})).
		AddCheck("redis", ReadinessCheckFunc(func(context.Context) error { return nil }))
	router := setupHealthTestRouter(h)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	resp := decodeAs[HealthResponse](t, w)
	assert.False(t, resp.Success)
	require.NotNil(t, resp.Error)
	assert.Equal(t, dto.ErrCodeUnavailable, resp.Error.Code)
	assert.Equal(t, "unavailable", resp.Data.Status)
	assert.Equal(t, map[string]string{
		"database": "connection refused",
		"redis":    "ok",
	}, resp.Data.Checks)
}
