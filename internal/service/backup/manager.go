package backup

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const schemaVersion = 1

// 备份原因
const (
	ReasonImport = "import"
	ReasonManual = "manual"
)

// ErrBackupNotFound 备份不存在
var ErrBackupNotFound = errors.New("backup not found")

// Snapshotter 能把数据库复制到指定路径的存储
type Snapshotter interface {
	Backup(ctx context.Context, dest string) error
}

// Manager 备份管理器：生成快照、维护索引、按数量清理旧备份
type Manager struct {
	dir  string
	db   Snapshotter
	keep int // 保留份数，<=0 不清理

	mu    sync.Mutex
	index Index
	now   func() time.Time
}

// NewManager 创建备份管理器并加载索引
func NewManager(dir string, db Snapshotter, keep int) (*Manager, error) {
	if dir == "" {
		return nil, errors.New("backup dir is required")
	}
	if err := ensureDir(dir); err != nil {
		return nil, err
	}

	m := &Manager{
		dir:   dir,
		db:    db,
		keep:  keep,
		index: Index{SchemaVersion: schemaVersion, Items: []Entry{}},
		now:   time.Now,
	}
	if err := m.loadIndex(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) indexPath() string {
	return filepath.Join(m.dir, "index.json")
}

func (m *Manager) loadIndex() error {
	path := m.indexPath()
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	var idx Index
	if err := readJSON(path, &idx); err != nil {
		return fmt.Errorf("failed to read backup index: %w", err)
	}
	if idx.Items == nil {
		idx.Items = []Entry{}
	}
	m.index = idx
	return nil
}

// Create 生成一份新备份
func (m *Manager) Create(ctx context.Context, reason string) (Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	id := uuid.NewString()
	file := fmt.Sprintf("stockmate_%s_%s.db", now.Format("20060102_150405"), id[:8])
	path := filepath.Join(m.dir, file)

	if err := m.db.Backup(ctx, path); err != nil {
		return Entry{}, err
	}

	entry := Entry{
		ID:        id,
		File:      file,
		Reason:    reason,
		CreatedAt: now,
	}
	if st, err := os.Stat(path); err == nil {
		entry.Size = st.Size()
	}

	m.index.Items = append([]Entry{entry}, m.index.Items...)
	m.pruneLocked()
	if err := writeJSONAtomic(m.indexPath(), m.index); err != nil {
		return entry, fmt.Errorf("failed to write backup index: %w", err)
	}

	zap.L().Info("backup created", zap.String("file", file), zap.String("reason", reason))
	return entry, nil
}

// pruneLocked 超出保留份数的旧备份连同文件一起删除
func (m *Manager) pruneLocked() {
	if m.keep <= 0 || len(m.index.Items) <= m.keep {
		return
	}
	for _, old := range m.index.Items[m.keep:] {
		if err := os.Remove(filepath.Join(m.dir, old.File)); err != nil && !errors.Is(err, os.ErrNotExist) {
			zap.L().Warn("remove old backup failed", zap.String("file", old.File), zap.Error(err))
		}
	}
	m.index.Items = m.index.Items[:m.keep]
}

// List 所有备份（新的在前）
func (m *Manager) List() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Entry, len(m.index.Items))
	copy(out, m.index.Items)
	return out
}

// Path 备份文件的绝对路径
func (m *Manager) Path(id string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.index.Items {
		if e.ID == id {
			return filepath.Join(m.dir, e.File), nil
		}
	}
	return "", ErrBackupNotFound
}
