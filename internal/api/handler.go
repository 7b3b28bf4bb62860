package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"stockmate/internal/calculator"
	"stockmate/internal/exporter"
	"stockmate/internal/importer"
	"stockmate/internal/service/backup"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

// Options 处理器选项
type Options struct {
	UploadDir      string // 上传文件暂存目录
	ExportDir      string // 导出文件目录
	MaxUploadBytes int64
	KeepUploads    bool
	Backups        *backup.Manager // 非空时每次导入前备份数据库
}

// Handler API 处理器
type Handler struct {
	store       *store.Store
	cache       *memstore.ProductCache
	coordinator *importer.Coordinator
	calc        *calculator.Calculator
	exporter    *exporter.Exporter
	validator   *RequestValidator
	downloads   *exportDownloadStore
	opts        Options
}

// NewHandler 创建 API 处理器
func NewHandler(st *store.Store, cache *memstore.ProductCache, coordinator *importer.Coordinator, opts Options) *Handler {
	calc := calculator.NewCalculator(st, cache)
	return &Handler{
		store:       st,
		cache:       cache,
		coordinator: coordinator,
		calc:        calc,
		exporter:    exporter.NewExporter(st, calc),
		validator:   NewRequestValidator(),
		downloads:   newExportDownloadStore(exportDownloadTTL),
		opts:        opts,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)
	router.GET("/stats", h.GetStats)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 设备
	router.GET("/products", h.ListProducts)
	router.GET("/products/:id", h.GetProduct)
	router.GET("/products/serial/:serial", h.GetProductBySerial)
	router.POST("/products", h.CreateProduct)
	router.PATCH("/products/:id", h.UpdateProduct)
	router.PATCH("/products/:id/status", h.UpdateProductStatus)
	router.DELETE("/products/:id", h.DeleteProduct)

	// 供应商
	router.GET("/suppliers", h.ListSuppliers)
	router.POST("/suppliers", h.CreateSupplier)
	router.POST("/suppliers/sync", h.SyncSuppliers)

	// 数据导入
	router.POST("/import", h.Import)
	router.GET("/imports", h.ListImports)

	// 数据导出
	router.POST("/export", h.Export)
	router.POST("/export/stream", h.ExportStream)
	router.GET("/export/download/:token", h.DownloadExport)

	// 数据库备份
	router.GET("/backups", h.ListBackups)
	router.POST("/backups", h.CreateBackup)
}

// Close 清理未下载的导出文件并释放内存列表
func (h *Handler) Close() {
	h.downloads.purge()
	h.cache.Clear()
}

func abortWithError(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}

func internalError(c *gin.Context, err error) {
	abortWithError(c, http.StatusInternalServerError, err.Error())
}
