package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"stockmate/internal/importer"
	"stockmate/internal/model"
	"stockmate/internal/parser"
	"stockmate/internal/service/backup"
)

// Import 导入设备文件（JSON / CSV / XLSX）
// POST /api/import        → 导入完成后返回 ImportReport
// POST /api/import?stream=true → SSE 流式进度
func (h *Handler) Import(c *gin.Context) {
	if h.opts.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.opts.MaxUploadBytes)
	}

	uploaded, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			abortWithError(c, http.StatusRequestEntityTooLarge, fmt.Sprintf("文件过大 (上限 %d 字节)", tooLarge.Limit))
			return
		}
		abortWithError(c, http.StatusBadRequest, "未找到上传文件")
		return
	}

	format := parser.DetectFormat(uploaded.Filename)
	if format == parser.FormatUnknown {
		abortWithError(c, http.StatusBadRequest, fmt.Sprintf("不支持的文件格式: %s", filepath.Ext(uploaded.Filename)))
		return
	}

	// 保存到上传目录，文件名随机避免冲突
	dir := h.opts.UploadDir
	if dir == "" {
		dir = os.TempDir()
	}
	tempFilePath := filepath.Join(dir, uuid.NewString()+strings.ToLower(filepath.Ext(uploaded.Filename)))
	if err := c.SaveUploadedFile(uploaded, tempFilePath); err != nil {
		abortWithError(c, http.StatusInternalServerError, "保存文件失败")
		return
	}
	if !h.opts.KeepUploads {
		defer os.Remove(tempFilePath)
	}

	// 客户端断开不应中断已开始的导入
	ctx := context.WithoutCancel(c.Request.Context())
	if h.opts.Backups != nil {
		if _, err := h.opts.Backups.Create(ctx, backup.ReasonImport); err != nil {
			zap.L().Error("backup before import failed", zap.Error(err))
			abortWithError(c, http.StatusInternalServerError, "导入前备份失败")
			return
		}
	}
	progressChan := h.coordinator.Import(ctx, importer.ImportOptions{
		FilePath: tempFilePath,
		Filename: uploaded.Filename,
	})

	if stream, _ := strconv.ParseBool(c.Query("stream")); stream {
		h.streamImport(c, progressChan)
		return
	}

	var last importer.ProgressEvent
	for event := range progressChan {
		if event.Type == importer.EventDone || event.Type == importer.EventError {
			last = event
		}
	}

	switch last.Type {
	case importer.EventDone:
		c.JSON(http.StatusOK, last.Data)
	case importer.EventError:
		abortWithError(c, http.StatusUnprocessableEntity, last.Message)
	default:
		abortWithError(c, http.StatusInternalServerError, "导入未完成")
	}
}

// streamImport 以 SSE 转发导入进度事件
func (h *Handler) streamImport(c *gin.Context, progressChan <-chan importer.ProgressEvent) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		// 仍需读完通道，导入协程才能退出
		for range progressChan {
		}
		abortWithError(c, http.StatusInternalServerError, "不支持流式响应")
		return
	}

	for event := range progressChan {
		eventData, err := json.Marshal(event)
		if err != nil {
			zap.L().Warn("marshal import event failed", zap.String("type", event.Type), zap.Error(err))
			continue
		}

		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", eventData)
		flusher.Flush()
	}
}

// ListImports 导入日志
// GET /api/imports?limit=50
func (h *Handler) ListImports(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		abortWithError(c, http.StatusBadRequest, "invalid limit")
		return
	}

	logs, err := h.store.ListImportLogs(c.Request.Context(), limit)
	if err != nil {
		internalError(c, err)
		return
	}
	if logs == nil {
		logs = []*model.ImportLog{}
	}
	c.JSON(http.StatusOK, gin.H{"items": logs, "total": len(logs)})
}
