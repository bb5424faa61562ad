package router

import (
	"net/http"
	"net/http/httptest"
	"sort"
	"testing"

	"github.com/erp/resale/internal/interfaces/http/handler"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func routeList(engine *gin.Engine) []string {
	var got []string
	for _, route := range engine.Routes() {
		got = append(got, route.Method+" "+route.Path)
	}
	sort.Strings(got)
	return got
}

func serve(engine *gin.Engine, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_APIPrefix(t *testing.T) {
	assert.Equal(t, "/api/v1", New(gin.New()).APIPrefix())
	assert.Equal(t, "/api/v2", New(gin.New(), WithAPIVersion("v2")).APIPrefix())
}

func TestRouter_Setup(t *testing.T) {
	engine := gin.New()
	text := func(body string) gin.HandlerFunc {
		return func(c *gin.Context) { c.String(http.StatusOK, body) }
	}

	New(engine, WithNoRoute(func(c *gin.Context) { c.String(http.StatusNotFound, "nowhere") })).
		Root(Group{Routes: []Route{Handle(http.MethodGet, "/health", text("ok"))}}).
		API(Group{Prefix: "/test", Routes: []Route{Handle(http.MethodGet, "/ping", text("pong"))}}).
		Setup()

	tests := []struct {
		path       string
		wantStatus int
		wantBody   string
	}{
		{"/api/v1/test/ping", http.StatusOK, "pong"},
		{"/health", http.StatusOK, "ok"},
		{"/test/ping", http.StatusNotFound, "nowhere"},
	}
	for _, tt := range tests {
		w := serve(engine, http.MethodGet, tt.path)
		assert.Equal(t, tt.wantStatus, w.Code, tt.path)
		assert.Equal(t, tt.wantBody, w.Body.String(), tt.path)
	}
}

func TestGroup_MiddlewareIsInherited(t *testing.T) {
	engine := gin.New()
	var calls []string
	mark := func(name string) gin.HandlerFunc {
		return func(c *gin.Context) { calls = append(calls, name) }
	}
	ok := func(c *gin.Context) { c.Status(http.StatusOK) }

	Group{
		Prefix:     "/outer",
		Middleware: []gin.HandlerFunc{mark("outer")},
		Routes:     []Route{Handle(http.MethodGet, "/a", ok)},
		Groups: []Group{{
			Prefix:     "/inner",
			Middleware: []gin.HandlerFunc{mark("inner")},
			Routes:     []Route{Handle(http.MethodGet, "/b", ok)},
		}},
	}.RegisterRoutes(engine)

	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/outer/inner/b").Code)
	assert.Equal(t, []string{"outer", "inner"}, calls)

	calls = nil
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/outer/a").Code)
	assert.Equal(t, []string{"outer"}, calls)
}

func TestNewMarketplaceRoutes(t *testing.T) {
	engine := gin.New()
	h := handler.NewMarketplaceHandler(nil, nil, nil, nil, 0)

	var uploadHits int
	New(engine).API(NewMarketplaceRoutes(h, func(c *gin.Context) {
		uploadHits++
		c.AbortWithStatus(http.StatusTooManyRequests)
	})).Setup()

	assert.Equal(t, []string{
		"DELETE /api/v1/marketplace/staged-orders/:id",
		"GET /api/v1/marketplace/batches",
		"GET /api/v1/marketplace/batches/:id",
		"GET /api/v1/marketplace/staged-orders",
		"GET /api/v1/marketplace/staged-orders/:id",
		"POST /api/v1/marketplace/batches/:id/apply",
		"POST /api/v1/marketplace/batches/:id/rematch",
		"POST /api/v1/marketplace/orders/import",
		"POST /api/v1/marketplace/payouts/import",
	}, routeList(engine))

	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/v1/marketplace/orders/import").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(engine, http.MethodPost, "/api/v1/marketplace/payouts/import").Code)
	assert.Equal(t, 2, uploadHits)
}

func TestHealthRoutesAtRoot(t *testing.T) {
	engine := gin.New()
	New(engine).Root(handler.NewHealthHandler("resale-erp", "test")).Setup()

	assert.Equal(t, []string{"GET /health", "GET /health/ready"}, routeList(engine))
	assert.Equal(t, http.StatusOK, serve(engine, http.MethodGet, "/health/ready").Code)
}
