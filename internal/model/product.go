package model

import (
	"strings"
	"time"
)

// EquipmentType 设备类型（封闭枚举）
type EquipmentType string

const (
	EquipmentLaptop         EquipmentType = "pc_portable"
	EquipmentDesktop        EquipmentType = "pc_fixe"
	EquipmentMonitor        EquipmentType = "ecran_pc"
	EquipmentPrinter        EquipmentType = "imprimante"
	EquipmentScanner        EquipmentType = "scanner"
	EquipmentPhone          EquipmentType = "telephone"
	EquipmentTablet         EquipmentType = "tablette"
	EquipmentKeyboard       EquipmentType = "clavier"
	EquipmentMouse          EquipmentType = "souris"
	EquipmentHeadset        EquipmentType = "casque"
	EquipmentWebcam         EquipmentType = "webcam"
	EquipmentDockingStation EquipmentType = "station_accueil"
	EquipmentServer         EquipmentType = "serveur"
	EquipmentNetwork        EquipmentType = "materiel_reseau"
	EquipmentProjector      EquipmentType = "videoprojecteur"
	EquipmentUPS            EquipmentType = "onduleur"
	EquipmentStorage        EquipmentType = "disque_dur"
	EquipmentAccessory      EquipmentType = "accessoire"
	EquipmentOther          EquipmentType = "autre"
)

// DefaultEquipmentType 无法识别时的默认类型
const DefaultEquipmentType = EquipmentLaptop

// EquipmentTypes 所有合法设备类型（顺序用于报表展示）
var EquipmentTypes = []EquipmentType{
	EquipmentLaptop,
	EquipmentDesktop,
	EquipmentMonitor,
	EquipmentPrinter,
	EquipmentScanner,
	EquipmentPhone,
	EquipmentTablet,
	EquipmentKeyboard,
	EquipmentMouse,
	EquipmentHeadset,
	EquipmentWebcam,
	EquipmentDockingStation,
	EquipmentServer,
	EquipmentNetwork,
	EquipmentProjector,
	EquipmentUPS,
	EquipmentStorage,
	EquipmentAccessory,
	EquipmentOther,
}

// Valid 是否为合法设备类型
func (t EquipmentType) Valid() bool {
	for _, v := range EquipmentTypes {
		if v == t {
			return true
		}
	}
	return false
}

// ProductStatus 设备状态
type ProductStatus string

const (
	StatusInStock ProductStatus = "EN_STOCK"       // 在库
	StatusRepair  ProductStatus = "SAV"            // 售后维修
	StatusInUse   ProductStatus = "EN_UTILISATION" // 使用中
	StatusBroken  ProductStatus = "HS"             // 报废
)

// ProductStatuses 所有合法状态
var ProductStatuses = []ProductStatus{StatusInStock, StatusRepair, StatusInUse, StatusBroken}

// Valid 是否为合法状态
func (s ProductStatus) Valid() bool {
	switch s {
	case StatusInStock, StatusRepair, StatusInUse, StatusBroken:
		return true
	}
	return false
}

// Product 设备（规范化后的库存记录）
type Product struct {
	ID int64 `json:"id"`

	SerialNumber  string        `json:"serialNumber"`
	Brand         string        `json:"brand"`
	Model         string        `json:"model"`
	EquipmentType EquipmentType `json:"equipmentType"`
	Assignment    *string       `json:"assignment"` // 使用人，nil 表示未分配

	EntryDate        *string `json:"entryDate"`        // YYYY-MM-DD
	ReevaluationDate *string `json:"reevaluationDate"` // YYYY-MM-DD

	Supplier      *string `json:"supplier"`
	InvoiceNumber *string `json:"invoiceNumber"`

	PurchasePriceHT     *float64 `json:"purchasePriceHt"`     // 未知价格为 nil，不是 0
	UsageDurationMonths *int     `json:"usageDurationMonths"` // 预计使用月数

	Quantity        int           `json:"quantity"`
	CurrentQuantity int           `json:"currentQuantity"`
	Status          ProductStatus `json:"status"`
	Comments        *string       `json:"comments"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SupplierName 返回去空白后的供应商名称
func (p *Product) SupplierName() string {
	if p.Supplier == nil {
		return ""
	}
	return strings.TrimSpace(*p.Supplier)
}

// Supplier 供应商参考表
type Supplier struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone"`
	Address     string    `json:"address"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"createdAt"`
}
