package api

import (
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/golang-lru/v2/expirable"
)

const (
	exportDownloadTTL   = 10 * time.Minute
	maxPendingDownloads = 64
)

type exportDownload struct {
	filePath string
	filename string // 下载时展示的文件名
}

// exportDownloadStore 一次性下载令牌；过期或被挤出时删除导出文件
type exportDownloadStore struct {
	items *expirable.LRU[string, exportDownload]
}

func newExportDownloadStore(ttl time.Duration) *exportDownloadStore {
	onEvict := func(_ string, v exportDownload) {
		_ = os.Remove(v.filePath)
	}
	return &exportDownloadStore{
		items: expirable.NewLRU[string, exportDownload](maxPendingDownloads, onEvict, ttl),
	}
}

func (s *exportDownloadStore) put(filePath, filename string) (token string) {
	token = uuid.NewString()
	s.items.Add(token, exportDownload{filePath: filePath, filename: filename})
	return token
}

func (s *exportDownloadStore) get(token string) (exportDownload, bool) {
	return s.items.Get(token)
}

// delete 移除令牌并删除文件
func (s *exportDownloadStore) delete(token string) {
	s.items.Remove(token)
}

func (s *exportDownloadStore) purge() {
	s.items.Purge()
}
