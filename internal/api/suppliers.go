package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"stockmate/internal/model"
)

// ListSuppliers 供应商参考表
// GET /api/suppliers
func (h *Handler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.store.ListSuppliers(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}
	if suppliers == nil {
		suppliers = []*model.Supplier{}
	}
	c.JSON(http.StatusOK, gin.H{"items": suppliers, "total": len(suppliers)})
}

// CreateSupplier 新增供应商
// POST /api/suppliers
func (h *Handler) CreateSupplier(c *gin.Context) {
	var req SupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := h.validator.Struct(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	sp := &model.Supplier{
		Name:        req.Name,
		ContactName: strings.TrimSpace(req.ContactName),
		Email:       strings.TrimSpace(req.Email),
		Phone:       strings.TrimSpace(req.Phone),
		Address:     strings.TrimSpace(req.Address),
		Active:      req.Active == nil || *req.Active,
	}
	if err := h.store.InsertSupplier(c.Request.Context(), sp); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sp)
}

// SyncSuppliers 将设备中出现的供应商名称补录到参考表
// POST /api/suppliers/sync
func (h *Handler) SyncSuppliers(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.coordinator.ReloadProducts(ctx); err != nil {
		internalError(c, err)
		return
	}
	inserted, err := h.coordinator.SyncSuppliers(ctx)
	if err != nil {
		internalError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"inserted": inserted})
}
