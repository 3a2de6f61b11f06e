package audit

import (
	"net/http"
	"strconv"

	"github.com/civicreg/citizen-admin/internal/apperr"
	"github.com/civicreg/citizen-admin/internal/format"
	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts the audit query and cleanup endpoints.
func RegisterRoutes(rg *gin.RouterGroup, svc *Service) {
	rg.GET("/audit", func(c *gin.Context) {
		q := Query{
			TargetUserID: c.Query("target_user_id"),
			AdminEmail:   c.Query("admin_email"),
			ActionType:   c.Query("action_type"),
		}
		q.Limit, _ = strconv.Atoi(c.Query("limit"))
		if t, ok := format.ParseDateInput(c.Query("from")); ok {
			q.From = &t
		}
		if t, ok := format.ParseDateRangeEnd(c.Query("to")); ok {
			q.To = &t
		}
		logs, err := svc.Logs(c.Request.Context(), q)
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.MessageOf(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"logs": logs, "count": len(logs)})
	})

	rg.POST("/audit/cleanup", func(c *gin.Context) {
		var req struct {
			RetentionDays int `json:"retention_days"`
		}
		// optional body; zero uses the configured retention
		_ = c.ShouldBindJSON(&req)
		deleted, err := svc.Cleanup(c.Request.Context(), req.RetentionDays)
		if err != nil {
			c.JSON(apperr.HTTPStatus(err), gin.H{"error": apperr.MessageOf(err)})
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted_count": deleted})
	})
}
