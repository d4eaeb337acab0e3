package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/JillVernus/claude-relay-service/internal/requestlog"
)

// handleRequestLogs serves GET /admin/request-logs?cursor=<id>&limit=<n>.
// The store's degraded empty page still renders as a success with no
// new data; only unexpected failures surface as 500s via the recovery
// middleware.
func (s *APIServer) handleRequestLogs(c *gin.Context) {
	cursor := c.Query("cursor")
	if cursor == "" {
		cursor = requestlog.SentinelCursor
	}

	limit := s.config.RequestLog.DefaultPageSize
	if raw := c.Query("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	if limit > s.config.RequestLog.MaxPageSize {
		limit = s.config.RequestLog.MaxPageSize
	}

	page := s.logQuery.GetPage(c.Request.Context(), cursor, limit)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"events":  page.Events,
		"lastId":  page.LastID,
	})
}
