package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticPinger struct{ err error }

func (p staticPinger) Ping() error { return p.err }

func systemRouter(db Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	NewSystemHandler(db).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func TestSystemHandler_Health(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		router := systemRouter(staticPinger{})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"ok"`)
	})

	t.Run("degraded database", func(t *testing.T) {
		router := systemRouter(staticPinger{err: errors.New("connection refused")})
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))

		require.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.Contains(t, w.Body.String(), `"status":"degraded"`)
		assert.Contains(t, w.Body.String(), "connection refused")
	})

	t.Run("no database configured", func(t *testing.T) {
		router := systemRouter(nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/health", nil))

		assert.Equal(t, http.StatusOK, w.Code)
	})
}

func TestSystemHandler_GetSystemInfo(t *testing.T) {
	router := systemRouter(staticPinger{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/system/info", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var envelope struct {
		Data struct {
			Name      string `json:"name"`
			GoVersion string `json:"go_version"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	assert.Equal(t, "Amazon Connector API", envelope.Data.Name)
	assert.NotEmpty(t, envelope.Data.GoVersion)
}
