package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	appErrors "github.com/mwillfox/flowline/pkg/errors"
	"github.com/mwillfox/flowline/pkg/response"
)

// Health returns a readiness payload after pinging the database.
func Health(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err == nil {
			err = sqlDB.PingContext(requestContext(c))
		}
		if err != nil {
			response.Error(c, appErrors.New("SERVICE_UNAVAILABLE", "database unreachable", http.StatusServiceUnavailable))
			return
		}

		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	}
}
