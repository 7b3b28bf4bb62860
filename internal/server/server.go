package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"stockmate/internal/api"
	"stockmate/internal/config"
	"stockmate/internal/importer"
	"stockmate/internal/parser"
	"stockmate/internal/service/backup"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

// Server HTTP服务器
type Server struct {
	router  *gin.Engine
	store   *store.Store
	cache   *memstore.ProductCache
	handler *api.Handler
	http    *http.Server
}

// NewServer 创建服务器：打开数据库、加载设备列表、注册路由
func NewServer(cfg *config.AppConfig) (*Server, error) {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}

	sqliteStore, err := store.New(config.DBPath(cfg))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	cache := memstore.NewProductCache()
	coordinator := importer.NewCoordinator(sqliteStore, cache, parser.MapperOptions{
		RequireEntryDate: cfg.Import.RequireEntryDate,
	})
	if err := coordinator.ReloadProducts(context.Background()); err != nil {
		_ = sqliteStore.Close()
		return nil, fmt.Errorf("failed to load products: %w", err)
	}

	opts := api.Options{
		UploadDir:      filepath.Join(dataDir, "uploads"),
		ExportDir:      filepath.Join(dataDir, "exports"),
		MaxUploadBytes: int64(cfg.Import.MaxUploadMB) << 20,
		KeepUploads:    cfg.Import.KeepUploads,
	}
	if cfg.Data.AutoBackup {
		backups, err := backup.NewManager(filepath.Join(dataDir, "backups"), sqliteStore, cfg.Data.KeepBackups)
		if err != nil {
			_ = sqliteStore.Close()
			return nil, fmt.Errorf("failed to init backups: %w", err)
		}
		opts.Backups = backups
	}
	handler := api.NewHandler(sqliteStore, cache, coordinator, opts)

	s := &Server{
		router:  gin.New(),
		store:   sqliteStore,
		cache:   cache,
		handler: handler,
	}
	s.setupRoutes(cfg.Server.DevMode)

	zap.L().Info("server initialized",
		zap.String("data_dir", dataDir),
		zap.Int("products", cache.Count()),
	)
	return s, nil
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(devMode bool) {
	s.router.Use(gin.Recovery(), requestLogger())

	corsCfg := cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:   []string{"Content-Length", "Content-Disposition"},
		MaxAge:          12 * time.Hour,
	}
	if devMode {
		// 开发模式：只允许前端开发服务器
		corsCfg.AllowAllOrigins = false
		corsCfg.AllowOrigins = []string{"http://localhost:5173"}
		corsCfg.AllowCredentials = true
	}
	s.router.Use(cors.New(corsCfg))

	s.router.GET("/healthz", func(c *gin.Context) {
		if err := s.store.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := s.router.Group("/api")
	{
		s.handler.RegisterRoutes(apiGroup)
	}

	s.router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	})
}

// requestLogger 请求日志中间件
func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		zap.L().Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.String("ip", c.ClientIP()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

// Handler 返回 http.Handler（用于测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器，阻塞直到 Shutdown
func (s *Server) Run(addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown 优雅关闭：等待进行中的请求，然后关闭数据库
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	if s.http != nil {
		err = s.http.Shutdown(ctx)
	}
	s.handler.Close()
	if cerr := s.store.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
