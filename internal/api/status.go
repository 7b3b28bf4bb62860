package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"stockmate/internal/calculator"
	"stockmate/internal/store"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Initialized        bool       `json:"initialized"`        // 是否已有设备数据
	TotalProducts      int        `json:"totalProducts"`      // 设备总数
	CachedProducts     int        `json:"cachedProducts"`     // 内存列表中的设备数
	CacheLoadedAt      *time.Time `json:"cacheLoadedAt"`      // 内存列表加载时间
	LastImportTime     *time.Time `json:"lastImportTime"`     // 最后导入时间
	DefaultUsageMonths int        `json:"defaultUsageMonths"` // 默认折旧月数
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	ctx := c.Request.Context()

	if err := h.store.Ping(ctx); err != nil {
		abortWithError(c, http.StatusServiceUnavailable, err.Error())
		return
	}

	total, err := h.store.CountProducts(ctx, store.ProductQueryOptions{})
	if err != nil {
		internalError(c, err)
		return
	}
	lastImport, err := h.store.LastImportAt(ctx)
	if err != nil {
		internalError(c, err)
		return
	}

	resp := StatusResponse{
		Initialized:        total > 0,
		TotalProducts:      total,
		CachedProducts:     h.cache.Count(),
		LastImportTime:     lastImport,
		DefaultUsageMonths: h.store.DefaultUsageMonths(ctx),
	}
	if loaded := h.cache.LoadedAt(); !loaded.IsZero() {
		resp.CacheLoadedAt = &loaded
	}
	c.JSON(http.StatusOK, resp)
}

// StatsResponse 仪表盘数据
type StatsResponse struct {
	Summary *store.InventoryStats       `json:"summary"`
	Groups  []calculator.IndicatorGroup `json:"groups"`
}

// GetStats 指标汇总
// GET /api/stats
func (h *Handler) GetStats(c *gin.Context) {
	ctx := c.Request.Context()

	summary, err := h.store.Stats(ctx)
	if err != nil {
		internalError(c, err)
		return
	}
	groups, err := h.calc.CalculateAll(ctx)
	if err != nil {
		internalError(c, err)
		return
	}

	c.JSON(http.StatusOK, StatsResponse{
		Summary: summary,
		Groups:  groups,
	})
}
