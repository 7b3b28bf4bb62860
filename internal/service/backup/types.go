package backup

import "time"

// Entry 一份数据库备份
type Entry struct {
	ID        string    `json:"id"`
	File      string    `json:"file"`   // 相对于备份目录的文件名
	Reason    string    `json:"reason"` // import / manual
	Size      int64     `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

// Index 备份索引文件：data/backups/index.json
type Index struct {
	SchemaVersion int     `json:"schemaVersion"`
	Items         []Entry `json:"items"` // 新的在前
}
