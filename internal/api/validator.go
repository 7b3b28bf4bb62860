package api

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"stockmate/internal/model"
	"stockmate/internal/store"
)

// 分页限制
const (
	DefaultPageSize = 50
	MaxPageSize     = 500
)

// ProductRequest 创建或修改设备的请求体
type ProductRequest struct {
	SerialNumber        string   `json:"serialNumber" validate:"required,max=128"`
	Brand               string   `json:"brand" validate:"required,max=128"`
	Model               string   `json:"model" validate:"required,max=256"`
	EquipmentType       string   `json:"equipmentType" validate:"omitempty,equipment_type"`
	Assignment          *string  `json:"assignment"`
	EntryDate           *string  `json:"entryDate" validate:"omitempty,datetime=2006-01-02"`
	ReevaluationDate    *string  `json:"reevaluationDate" validate:"omitempty,datetime=2006-01-02"`
	Supplier            *string  `json:"supplier"`
	InvoiceNumber       *string  `json:"invoiceNumber"`
	PurchasePriceHT     *float64 `json:"purchasePriceHt" validate:"omitempty,gte=0"`
	UsageDurationMonths *int     `json:"usageDurationMonths" validate:"omitempty,gte=0"`
	Quantity            *int     `json:"quantity" validate:"omitempty,gte=0"`
	CurrentQuantity     *int     `json:"currentQuantity" validate:"omitempty,gte=0"`
	Status              string   `json:"status" validate:"omitempty,product_status"`
	Comments            *string  `json:"comments"`
}

// StatusRequest 修改设备状态
type StatusRequest struct {
	Status string `json:"status" validate:"required,product_status"`
}

// SupplierRequest 新增供应商
type SupplierRequest struct {
	Name        string `json:"name" validate:"required,max=256"`
	ContactName string `json:"contactName"`
	Email       string `json:"email" validate:"omitempty,email"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	Active      *bool  `json:"active"`
}

// RequestValidator 请求参数校验
type RequestValidator struct {
	validate *validator.Validate
}

// NewRequestValidator 创建校验器并注册设备枚举规则
func NewRequestValidator() *RequestValidator {
	v := validator.New()
	_ = v.RegisterValidation("equipment_type", func(fl validator.FieldLevel) bool {
		return model.EquipmentType(fl.Field().String()).Valid()
	})
	_ = v.RegisterValidation("product_status", func(fl validator.FieldLevel) bool {
		return model.ProductStatus(fl.Field().String()).Valid()
	})
	return &RequestValidator{validate: v}
}

// Struct 校验结构体，错误信息逐字段拼接
func (rv *RequestValidator) Struct(s interface{}) error {
	err := rv.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed on %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("validation failed: %s", strings.Join(msgs, "; "))
}

// ParsePagination 解析 page / pageSize
func (rv *RequestValidator) ParsePagination(c *gin.Context) (page, pageSize int, err error) {
	page, err = strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		return 0, 0, errors.New("invalid page number")
	}

	pageSize, err = strconv.Atoi(c.DefaultQuery("pageSize", strconv.Itoa(DefaultPageSize)))
	if err != nil || pageSize < 1 {
		return 0, 0, errors.New("invalid page size")
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize, nil
}

// ParseProductQuery 解析设备列表过滤条件
func (rv *RequestValidator) ParseProductQuery(c *gin.Context) (store.ProductQueryOptions, error) {
	var opts store.ProductQueryOptions

	if v := strings.TrimSpace(c.Query("status")); v != "" {
		s := model.ProductStatus(strings.ToUpper(v))
		if !s.Valid() {
			return opts, fmt.Errorf("invalid status %q", v)
		}
		opts.Status = &s
	}
	if v := strings.TrimSpace(c.Query("equipmentType")); v != "" {
		t := model.EquipmentType(strings.ToLower(v))
		if !t.Valid() {
			return opts, fmt.Errorf("invalid equipmentType %q", v)
		}
		opts.EquipmentType = &t
	}
	if v := strings.TrimSpace(c.Query("supplier")); v != "" {
		opts.Supplier = &v
	}
	opts.Keyword = strings.TrimSpace(c.Query("keyword"))
	return opts, nil
}

// ParseID 解析路径中的数字 ID
func ParseID(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}
