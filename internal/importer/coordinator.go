package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"stockmate/internal/model"
	"stockmate/internal/parser"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

// Store 导入流程依赖的持久化接口
type Store interface {
	SerialChecker
	SupplierStore
	InsertProduct(ctx context.Context, p *model.Product) error
	ListProducts(ctx context.Context, opts store.ProductQueryOptions) ([]*model.Product, error)
	CreateImportLog(ctx context.Context, filename, format string) (int64, error)
	UpdateImportLog(ctx context.Context, id int64, u store.ImportLogUpdate) error
	SetLastImportAt(ctx context.Context, t time.Time) error
}

// Coordinator 导入协调器
type Coordinator struct {
	store      Store
	cache      *memstore.ProductCache
	mapper     *parser.FieldMapper
	recognizer *parser.TemplateRecognizer
	resolver   *Resolver
	suppliers  *SupplierSynchronizer
}

// NewCoordinator 创建导入协调器
func NewCoordinator(st Store, cache *memstore.ProductCache, opts parser.MapperOptions) *Coordinator {
	return &Coordinator{
		store:      st,
		cache:      cache,
		mapper:     parser.NewFieldMapper(opts),
		recognizer: parser.NewTemplateRecognizer(),
		resolver:   NewResolver(st),
		suppliers:  NewSupplierSynchronizer(st, cache),
	}
}

// ImportOptions 导入选项
type ImportOptions struct {
	FilePath string
	Filename string // 展示用文件名（上传时的原始名称），为空时取 FilePath 的文件名
}

// 进度事件类型
const (
	EventStart    = "start"
	EventInfo     = "info"
	EventProgress = "progress"
	EventRowError = "row_error"
	EventSync     = "sync"
	EventDone     = "done"
	EventError    = "error"
)

// ProgressEvent 进度事件
type ProgressEvent struct {
	Type      string      `json:"type"`      // start/info/progress/row_error/sync/done/error
	Message   string      `json:"message"`   // 事件消息
	Data      interface{} `json:"data"`      // 附加数据
	Timestamp time.Time   `json:"timestamp"` // 时间戳
}

// progressEvery 每处理多少行发送一次 progress 事件
const progressEvery = 50

// Import 执行文件导入，返回进度通道
//
// 整个文件解析失败时只发送 error 事件；否则逐行导入，最后发送 done（携带 ImportReport）。
// 已开始的导入不可取消：ctx 只传递取值，取消信号被忽略。
func (c *Coordinator) Import(ctx context.Context, opts ImportOptions) <-chan ProgressEvent {
	ctx = context.WithoutCancel(ctx)
	progressChan := make(chan ProgressEvent, 100)

	go func() {
		defer close(progressChan)
		c.doImport(ctx, opts, progressChan)
	}()

	return progressChan
}

// doImport 执行导入逻辑
func (c *Coordinator) doImport(ctx context.Context, opts ImportOptions, progressChan chan ProgressEvent) {
	startTime := time.Now()
	log := zap.L().Named("importer")

	filename := opts.Filename
	if filename == "" {
		filename = filepath.Base(opts.FilePath)
	}
	format := parser.DetectFormat(filename)
	if format == parser.FormatUnknown {
		format = parser.DetectFormat(opts.FilePath)
	}

	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventStart,
		Message: fmt.Sprintf("开始导入文件: %s", filename),
		Data: map[string]string{
			"filename": filename,
			"format":   string(format),
		},
		Timestamp: time.Now(),
	})

	logID, err := c.store.CreateImportLog(ctx, filename, string(format))
	if err != nil {
		// 日志写失败不影响导入本身
		log.Warn("create import log failed", zap.Error(err))
	}

	// 解析文件
	parsed, err := c.parse(opts.FilePath, format)
	if err != nil {
		log.Error("parse import file failed", zap.String("file", filename), zap.Error(err))
		c.finishLog(ctx, logID, store.ImportLogUpdate{
			Status:       store.ImportStatusError,
			ErrorMessage: err.Error(),
		})
		c.sendProgress(progressChan, ProgressEvent{
			Type:      EventError,
			Message:   fmt.Sprintf("解析文件失败: %v", err),
			Timestamp: time.Now(),
		})
		return
	}

	// 识别表头模板
	recognition := c.recognizer.Recognize(parsed.Headers)
	c.sendProgress(progressChan, ProgressEvent{
		Type: EventInfo,
		Message: fmt.Sprintf("识别为 %s 模板 (置信度: %.2f)，共 %d 行",
			recognition.Template, recognition.Confidence, len(parsed.Records)),
		Data: map[string]interface{}{
			"format":     parsed.Format,
			"template":   recognition.Template,
			"confidence": recognition.Confidence,
			"unmapped":   recognition.Unmapped,
			"total_rows": len(parsed.Records),
		},
		Timestamp: time.Now(),
	})

	report := &parser.ImportReport{
		Filename:  filename,
		Format:    parsed.Format,
		Template:  recognition.Template,
		TotalRows: len(parsed.Records),
	}

	report.Outcome = c.importRows(ctx, parsed.Records, func(idx int, serial string, rowErr error, outcome *model.ImportOutcome) {
		if rowErr != nil {
			c.sendProgress(progressChan, ProgressEvent{
				Type:    EventRowError,
				Message: outcome.Errors[len(outcome.Errors)-1],
				Data: map[string]interface{}{
					"row":    idx + 1,
					"serial": serial,
				},
				Timestamp: time.Now(),
			})
		}
		if processed := idx + 1; processed%progressEvery == 0 {
			c.sendProgress(progressChan, ProgressEvent{
				Type:    EventProgress,
				Message: fmt.Sprintf("已处理 %d/%d 行", processed, outcome.Attempted),
				Data: map[string]int{
					"processed": processed,
					"total":     outcome.Attempted,
				},
				Timestamp: time.Now(),
			})
		}
	})

	// 全部行写完后：重载缓存 → 同步供应商
	report.SuppliersAdded = c.afterBatch(ctx)
	c.sendProgress(progressChan, ProgressEvent{
		Type:    EventSync,
		Message: fmt.Sprintf("新增供应商 %d 个", report.SuppliersAdded),
		Data: map[string]int{
			"suppliers_added": report.SuppliersAdded,
		},
		Timestamp: time.Now(),
	})

	report.Duration = time.Since(startTime)
	c.finishLog(ctx, logID, store.ImportLogUpdate{
		Template:     string(report.Template),
		TotalRows:    report.TotalRows,
		ImportedRows: report.Outcome.Succeeded,
		ErrorRows:    report.Outcome.Failed,
		Status:       store.ImportStatusDone,
	})
	if err := c.store.SetLastImportAt(ctx, time.Now()); err != nil {
		log.Warn("record last import time failed", zap.Error(err))
	}

	log.Info("import finished",
		zap.String("file", filename),
		zap.String("template", string(report.Template)),
		zap.Int("attempted", report.Outcome.Attempted),
		zap.Int("succeeded", report.Outcome.Succeeded),
		zap.Int("failed", report.Outcome.Failed),
		zap.Duration("duration", report.Duration),
	)

	c.sendProgress(progressChan, ProgressEvent{
		Type:      EventDone,
		Message:   "导入完成",
		Data:      report,
		Timestamp: time.Now(),
	})
}

func (c *Coordinator) parse(path string, format parser.FileFormat) (*parser.ParsedFile, error) {
	if format == parser.FormatUnknown {
		return nil, fmt.Errorf("%w: %s", parser.ErrUnsupportedFormat, filepath.Ext(path))
	}
	return parser.ParseFileAs(path, format)
}

// ImportBatch 逐行导入已解析的记录
//
// 行严格按源顺序处理；单行失败记录错误后继续。全部行结束后重载设备缓存并同步供应商。
func (c *Coordinator) ImportBatch(ctx context.Context, records []model.RawRecord) *model.ImportOutcome {
	ctx = context.WithoutCancel(ctx)
	outcome := c.importRows(ctx, records, nil)
	c.afterBatch(ctx)
	return outcome
}

type rowCallback func(idx int, serial string, err error, outcome *model.ImportOutcome)

// importRows 对每行执行 映射 → 去重 → 写入，并把结果折叠进 ImportOutcome
func (c *Coordinator) importRows(ctx context.Context, records []model.RawRecord, onRow rowCallback) *model.ImportOutcome {
	outcome := model.NewImportOutcome(len(records))
	for idx, rec := range records {
		serial, err := c.importRow(ctx, rec)
		if err != nil {
			outcome.RecordFailure(serial, err)
			zap.L().Warn("import row failed",
				zap.Int("row", idx+1),
				zap.String("serial", serial),
				zap.Error(err),
			)
		} else {
			outcome.RecordSuccess()
		}
		if onRow != nil {
			onRow(idx, serial, err, outcome)
		}
	}
	return outcome
}

// importRow 导入单行，返回最终使用的序列号
func (c *Coordinator) importRow(ctx context.Context, rec model.RawRecord) (string, error) {
	product := c.mapper.MapRecord(rec)

	serial, err := c.resolver.Resolve(ctx, product)
	if err != nil {
		return product.SerialNumber, err
	}
	product.SerialNumber = serial

	err = c.store.InsertProduct(ctx, product)
	if errors.Is(err, store.ErrDuplicateSerial) {
		// 查询与写入之间被占用：换一个序列号重试一次
		product.SerialNumber = c.resolver.Disambiguate(serial)
		err = c.store.InsertProduct(ctx, product)
	}
	return product.SerialNumber, err
}

// afterBatch 重载设备缓存并同步供应商，返回新增供应商数量
func (c *Coordinator) afterBatch(ctx context.Context) int {
	log := zap.L().Named("importer")

	if err := c.ReloadProducts(ctx); err != nil {
		log.Warn("reload products failed", zap.Error(err))
		return 0
	}

	inserted, err := c.suppliers.SyncSuppliers(ctx)
	if err != nil {
		log.Warn("supplier sync failed", zap.Int("inserted", inserted), zap.Error(err))
	}
	return inserted
}

// ReloadProducts 从数据库重载设备缓存
func (c *Coordinator) ReloadProducts(ctx context.Context) error {
	products, err := c.store.ListProducts(ctx, store.ProductQueryOptions{})
	if err != nil {
		return err
	}
	c.cache.SetProducts(products)
	return nil
}

// SyncSuppliers 单独执行一次供应商同步
func (c *Coordinator) SyncSuppliers(ctx context.Context) (int, error) {
	return c.suppliers.SyncSuppliers(ctx)
}

func (c *Coordinator) finishLog(ctx context.Context, id int64, u store.ImportLogUpdate) {
	if id == 0 {
		return
	}
	if err := c.store.UpdateImportLog(ctx, id, u); err != nil {
		zap.L().Warn("update import log failed", zap.Int64("id", id), zap.Error(err))
	}
}

// sendProgress 发送进度事件；done/error 必须送达，其余事件通道满时丢弃
func (c *Coordinator) sendProgress(ch chan ProgressEvent, event ProgressEvent) {
	if event.Type == EventDone || event.Type == EventError {
		ch <- event
		return
	}
	select {
	case ch <- event:
	default:
		// 通道已满，丢弃事件
	}
}
