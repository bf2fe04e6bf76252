// server/internal/api/handlers/helpers.go
package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"quickmeds-api-server/internal/apperr"
)

// respondError map lỗi domain sang HTTP status.
// Lỗi không thuộc taxonomy là lỗi server: log chi tiết, trả thông điệp chung.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, apperr.NotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.InvalidArgument):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.InvalidState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperr.NoPartnerAvailable):
		// Tín hiệu riêng để client đề xuất phương án khác thay vì retry mù.
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error(), "code": "NO_PARTNER_AVAILABLE"})
	default:
		log.Printf("Internal error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
