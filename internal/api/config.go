package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockmate/internal/store"
)

// ConfigResponse 业务配置
type ConfigResponse struct {
	DefaultUsageMonths int `json:"defaultUsageMonths"` // 未填写使用月数时的折旧周期
}

// UpdateConfigRequest 更新配置请求，未出现的字段不修改
type UpdateConfigRequest struct {
	DefaultUsageMonths *int `json:"defaultUsageMonths" validate:"omitempty,gte=1,lte=600"`
}

// GetConfig 获取配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, ConfigResponse{
		DefaultUsageMonths: h.store.DefaultUsageMonths(c.Request.Context()),
	})
}

// UpdateConfig 更新配置
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "请求格式错误")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if req.DefaultUsageMonths != nil {
		if err := h.store.SetConfigInt(ctx, store.ConfigDefaultUsageMonths, *req.DefaultUsageMonths); err != nil {
			abortWithError(c, http.StatusInternalServerError, "更新配置失败: "+store.ConfigDefaultUsageMonths)
			return
		}
	}

	c.JSON(http.StatusOK, ConfigResponse{
		DefaultUsageMonths: h.store.DefaultUsageMonths(ctx),
	})
}
