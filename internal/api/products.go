package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockmate/internal/model"
	"stockmate/internal/store"
)

type listProductsResponse struct {
	Items    []*model.Product `json:"items"`
	Total    int              `json:"total"`
	Page     int              `json:"page"`
	PageSize int              `json:"pageSize"`
}

// ListProducts 设备列表（分页 + 过滤）
// GET /api/products
func (h *Handler) ListProducts(c *gin.Context) {
	page, pageSize, err := h.validator.ParsePagination(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}
	opts, err := h.validator.ParseProductQuery(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	total, err := h.store.CountProducts(ctx, opts)
	if err != nil {
		internalError(c, err)
		return
	}

	opts.Limit = pageSize
	opts.Offset = (page - 1) * pageSize
	items, err := h.store.ListProducts(ctx, opts)
	if err != nil {
		internalError(c, err)
		return
	}
	if items == nil {
		items = []*model.Product{}
	}

	c.JSON(http.StatusOK, listProductsResponse{
		Items:    items,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetProduct 设备详情
// GET /api/products/:id
func (h *Handler) GetProduct(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	p, err := h.store.GetProduct(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetProductBySerial 按序列号查找设备；先查内存列表，未命中再查库（覆盖列表重载前的新写入）
// GET /api/products/serial/:serial
func (h *Handler) GetProductBySerial(c *gin.Context) {
	serial := strings.TrimSpace(c.Param("serial"))
	if serial == "" {
		abortWithError(c, http.StatusBadRequest, "序列号不能为空")
		return
	}

	if p, err := h.cache.BySerial(serial); err == nil {
		c.JSON(http.StatusOK, p)
		return
	}

	p, err := h.store.GetProductBySerial(c.Request.Context(), serial)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// CreateProduct 手工新增设备；序列号重复直接拒绝（导入时的自动改名不适用）
// POST /api/products
func (h *Handler) CreateProduct(c *gin.Context) {
	var req ProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	p := &model.Product{
		EquipmentType:   model.DefaultEquipmentType,
		Quantity:        1,
		CurrentQuantity: 1,
		Status:          model.StatusInStock,
	}
	req.applyTo(p)

	ctx := c.Request.Context()
	if err := h.store.InsertProduct(ctx, p); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.reloadCache(c)

	c.JSON(http.StatusCreated, p)
}

// UpdateProduct 部分更新设备，未出现在请求体中的字段保持不变
// PATCH /api/products/:id
func (h *Handler) UpdateProduct(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	existing, err := h.store.GetProduct(ctx, id)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}

	req := requestFromProduct(existing)
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid json")
		return
	}
	if err := h.validator.Struct(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	req.applyTo(existing)
	if err := h.store.UpdateProduct(ctx, existing); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.reloadCache(c)

	updated, err := h.store.GetProduct(ctx, id)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// UpdateProductStatus 修改设备状态
// PATCH /api/products/:id/status
func (h *Handler) UpdateProductStatus(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	var req StatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, "invalid json")
		return
	}
	req.Status = strings.ToUpper(strings.TrimSpace(req.Status))
	if err := h.validator.Struct(&req); err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	ctx := c.Request.Context()
	if err := h.store.UpdateProductStatus(ctx, id, model.ProductStatus(req.Status)); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.reloadCache(c)

	p, err := h.store.GetProduct(ctx, id)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// DeleteProduct 删除设备
// DELETE /api/products/:id
func (h *Handler) DeleteProduct(c *gin.Context) {
	id, err := ParseID(c)
	if err != nil {
		abortWithError(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.DeleteProduct(c.Request.Context(), id); err != nil {
		h.writeStoreError(c, err)
		return
	}
	h.reloadCache(c)

	c.Status(http.StatusNoContent)
}

// reloadCache 写操作后刷新内存设备列表
func (h *Handler) reloadCache(c *gin.Context) {
	if err := h.coordinator.ReloadProducts(c.Request.Context()); err != nil {
		zap.L().Warn("reload product cache failed", zap.Error(err))
	}
}

func (h *Handler) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		abortWithError(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrDuplicateSerial), errors.Is(err, store.ErrDuplicateSupplier):
		abortWithError(c, http.StatusConflict, err.Error())
	default:
		internalError(c, err)
	}
}

func requestFromProduct(p *model.Product) ProductRequest {
	qty := p.Quantity
	current := p.CurrentQuantity
	return ProductRequest{
		SerialNumber:        p.SerialNumber,
		Brand:               p.Brand,
		Model:               p.Model,
		EquipmentType:       string(p.EquipmentType),
		Assignment:          p.Assignment,
		EntryDate:           p.EntryDate,
		ReevaluationDate:    p.ReevaluationDate,
		Supplier:            p.Supplier,
		InvoiceNumber:       p.InvoiceNumber,
		PurchasePriceHT:     p.PurchasePriceHT,
		UsageDurationMonths: p.UsageDurationMonths,
		Quantity:            &qty,
		CurrentQuantity:     &current,
		Status:              string(p.Status),
		Comments:            p.Comments,
	}
}

// applyTo 将请求写入设备，文本去空白，空的可选文本视为未填写
func (r *ProductRequest) applyTo(p *model.Product) {
	p.SerialNumber = strings.TrimSpace(r.SerialNumber)
	p.Brand = strings.TrimSpace(r.Brand)
	p.Model = strings.TrimSpace(r.Model)
	if r.EquipmentType != "" {
		p.EquipmentType = model.EquipmentType(r.EquipmentType)
	}
	p.Assignment = trimOptional(r.Assignment)
	p.EntryDate = trimOptional(r.EntryDate)
	p.ReevaluationDate = trimOptional(r.ReevaluationDate)
	p.Supplier = trimOptional(r.Supplier)
	p.InvoiceNumber = trimOptional(r.InvoiceNumber)
	p.PurchasePriceHT = r.PurchasePriceHT
	p.UsageDurationMonths = r.UsageDurationMonths
	if r.Quantity != nil {
		p.Quantity = *r.Quantity
		if r.CurrentQuantity == nil {
			p.CurrentQuantity = *r.Quantity
		}
	}
	if r.CurrentQuantity != nil {
		p.CurrentQuantity = *r.CurrentQuantity
	}
	if r.Status != "" {
		p.Status = model.ProductStatus(r.Status)
	}
	p.Comments = trimOptional(r.Comments)
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
