package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockmate/internal/service/backup"
)

// ListBackups 数据库备份列表
// GET /api/backups
func (h *Handler) ListBackups(c *gin.Context) {
	if h.opts.Backups == nil {
		c.JSON(http.StatusOK, gin.H{"items": []backup.Entry{}, "enabled": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": h.opts.Backups.List(), "enabled": true})
}

// CreateBackup 立即备份数据库
// POST /api/backups
func (h *Handler) CreateBackup(c *gin.Context) {
	if h.opts.Backups == nil {
		abortWithError(c, http.StatusNotImplemented, "备份未启用")
		return
	}
	entry, err := h.opts.Backups.Create(c.Request.Context(), backup.ReasonManual)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}
