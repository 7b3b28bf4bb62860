package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockmate/internal/exporter"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type exportProgressEvent struct {
	Type      string      `json:"type"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data"`
	Timestamp time.Time   `json:"timestamp"`
}

// exportResult 导出完成后的下载信息
type exportResult struct {
	Filename    string `json:"filename"`
	DownloadURL string `json:"downloadUrl"`
}

// Export 导出 Excel，返回一次性下载地址
// POST /api/export?status=&equipmentType=&supplier=&keyword=
func (h *Handler) Export(c *gin.Context) {
	res, err := h.exportToDownload(c, nil)
	if err != nil {
		if isBadRequest(err) {
			abortWithError(c, http.StatusBadRequest, err.Error())
			return
		}
		abortWithError(c, http.StatusInternalServerError, "导出失败: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, res)
}

// ExportStream 导出 Excel（SSE 进度 + 完成后提供下载地址）
// POST /api/export/stream
func (h *Handler) ExportStream(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		abortWithError(c, http.StatusInternalServerError, "不支持流式响应")
		return
	}

	send := func(event exportProgressEvent) {
		b, err := json.Marshal(event)
		if err != nil {
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	send(exportProgressEvent{
		Type:      "start",
		Message:   "开始导出",
		Data:      map[string]any{},
		Timestamp: time.Now(),
	})

	progressFn := func(p exporter.ProgressEvent) {
		send(exportProgressEvent{
			Type:      "progress",
			Message:   p.Stage,
			Data:      map[string]any{"percent": p.Percent},
			Timestamp: time.Now(),
		})
	}

	res, err := h.exportToDownload(c, progressFn)
	if err != nil {
		send(exportProgressEvent{
			Type:      "error",
			Message:   "导出失败: " + err.Error(),
			Data:      map[string]any{},
			Timestamp: time.Now(),
		})
		return
	}

	send(exportProgressEvent{
		Type:    "done",
		Message: exporter.StageDone,
		Data: map[string]any{
			"percent":     100,
			"filename":    res.Filename,
			"downloadUrl": res.DownloadURL,
		},
		Timestamp: time.Now(),
	})
}

type badRequestError struct{ error }

func isBadRequest(err error) bool {
	_, ok := err.(badRequestError)
	return ok
}

// exportToDownload 按查询条件导出到导出目录并登记下载令牌
func (h *Handler) exportToDownload(c *gin.Context, progress func(exporter.ProgressEvent)) (*exportResult, error) {
	query, err := h.validator.ParseProductQuery(c)
	if err != nil {
		return nil, badRequestError{err}
	}

	// 导出基于内存列表计算指标，先确保其为最新
	ctx := c.Request.Context()
	if err := h.coordinator.ReloadProducts(ctx); err != nil {
		return nil, err
	}

	dir := h.opts.ExportDir
	if dir == "" {
		dir = os.TempDir()
	}
	filename := exporter.ExportFilename(time.Now())
	path := filepath.Join(dir, fmt.Sprintf("%d_%s", time.Now().UnixNano(), filename))

	if err := h.exporter.ExportToFile(ctx, path, exporter.ExportOptions{
		Query:    query,
		Progress: progress,
	}); err != nil {
		_ = os.Remove(path)
		return nil, err
	}

	token := h.downloads.put(path, filename)
	zap.L().Info("export ready", zap.String("file", filename))

	return &exportResult{
		Filename:    filename,
		DownloadURL: "/api/export/download/" + token,
	}, nil
}

// DownloadExport 下载导出的 Excel 文件（一次性）
// GET /api/export/download/:token
func (h *Handler) DownloadExport(c *gin.Context) {
	token := c.Param("token")
	if token == "" {
		abortWithError(c, http.StatusBadRequest, "缺少 token")
		return
	}

	item, ok := h.downloads.get(token)
	if !ok {
		abortWithError(c, http.StatusNotFound, "下载链接已失效")
		return
	}

	if _, err := os.Stat(item.filePath); err != nil {
		h.downloads.delete(token)
		abortWithError(c, http.StatusNotFound, "导出文件不存在")
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", item.filename))
	c.Header("Content-Type", xlsxContentType)
	c.File(item.filePath)

	// 删除令牌时同时删除文件
	h.downloads.delete(token)
}
