package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRequestLogger(t *testing.T) {
	gin.SetMode(gin.ReleaseMode)

	var buf bytes.Buffer
	logger := zerolog.New(&buf)

	server := gin.New()
	server.Use(RequestLogger(logger))
	server.GET("/ping", func(gctx *gin.Context) {
		zerolog.Ctx(gctx.Request.Context()).Info().Msg("inside handler")
		gctx.JSON(http.StatusOK, gin.H{})
	})
	server.GET("/panic", func(gctx *gin.Context) {
		panic("boom")
	})

	t.Run("GeneratesRequestID", func(t *testing.T) {
		buf.Reset()

		recorder := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/ping", nil)
		require.NoError(t, err)

		server.ServeHTTP(recorder, req)

		requestID := recorder.Header().Get(RequestIDHeader)
		require.NotEmpty(t, requestID)
		require.Contains(t, buf.String(), "inside handler")
		require.Contains(t, buf.String(), requestID)
	})

	t.Run("KeepsRequestID", func(t *testing.T) {
		buf.Reset()

		recorder := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/ping", nil)
		require.NoError(t, err)
		req.Header.Set(RequestIDHeader, "req-42")

		server.ServeHTTP(recorder, req)

		require.Equal(t, "req-42", recorder.Header().Get(RequestIDHeader))
		require.Contains(t, buf.String(), `"request_id":"req-42"`)
	})

	t.Run("RecoversPanic", func(t *testing.T) {
		buf.Reset()

		recorder := httptest.NewRecorder()
		req, err := http.NewRequest(http.MethodGet, "/panic", nil)
		require.NoError(t, err)

		server.ServeHTTP(recorder, req)

		require.Equal(t, http.StatusInternalServerError, recorder.Code)
		require.Contains(t, buf.String(), "panic message: boom")
	})
}
