package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"quickmeds-api-server/internal/apperr"
)

func TestRespondError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
	}{
		{fmt.Errorf("order ORD-X: %w", apperr.NotFound), http.StatusNotFound},
		{fmt.Errorf("bad coords: %w", apperr.InvalidArgument), http.StatusBadRequest},
		{fmt.Errorf("already accepted: %w", apperr.InvalidState), http.StatusConflict},
		{apperr.NoPartnerAvailable, http.StatusServiceUnavailable},
		{fmt.Errorf("mongo: connection reset"), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		respondError(c, tc.err)
		require.Equal(t, tc.status, w.Code, "error: %v", tc.err)
	}
}

func TestRespondError_NoPartnerCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, apperr.NoPartnerAvailable)
	require.Contains(t, w.Body.String(), "NO_PARTNER_AVAILABLE")
}

func TestRespondError_HidesInternalDetail(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	respondError(c, fmt.Errorf("dial tcp 10.0.0.3:27017: i/o timeout"))
	require.NotContains(t, w.Body.String(), "27017")
	require.Contains(t, w.Body.String(), "Internal server error")
}
