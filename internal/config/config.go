package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// AppConfig 应用配置
type AppConfig struct {
	Server ServerConfig `toml:"server"`
	Data   DataConfig   `toml:"data"`
	Import ImportConfig `toml:"import"`
	Log    LogConfig    `toml:"log"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port    int  `toml:"port"`
	DevMode bool `toml:"dev_mode"`
}

// DataConfig 数据配置
type DataConfig struct {
	DataDir     string `toml:"data_dir"`
	DBName      string `toml:"db_name"`
	AutoBackup  bool   `toml:"auto_backup"`  // 每次导入前备份数据库
	KeepBackups int    `toml:"keep_backups"` // 保留的备份份数
}

// ImportConfig 导入相关配置
type ImportConfig struct {
	MaxUploadMB      int  `toml:"max_upload_mb"`
	RequireEntryDate bool `toml:"require_entry_date"` // 缺失入库日期时补齐为当天
	KeepUploads      bool `toml:"keep_uploads"`       // 导入完成后保留上传文件
}

// LogConfig 日志配置
type LogConfig struct {
	Level       string `toml:"level"`
	Development bool   `toml:"development"`
}

// LoadConfigInfo 配置加载元信息
type LoadConfigInfo struct {
	Path          string
	FileFound     bool
	PortSpecified bool
}

// DefaultConfig 默认配置
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:    20261,
			DevMode: false,
		},
		Data: DataConfig{
			DataDir:     "data",
			DBName:      "stockmate.db",
			AutoBackup:  true,
			KeepBackups: 10,
		},
		Import: ImportConfig{
			MaxUploadMB:      32,
			RequireEntryDate: false,
			KeepUploads:      false,
		},
		Log: LogConfig{
			Level:       "info",
			Development: false,
		},
	}
}

func isPortSpecifiedInToml(data []byte) bool {
	var raw map[string]any
	if err := toml.Unmarshal(data, &raw); err != nil {
		return false
	}

	serverAny, ok := raw["server"]
	if !ok {
		return false
	}

	serverMap, ok := serverAny.(map[string]any)
	if !ok {
		return false
	}

	_, ok = serverMap["port"]
	return ok
}

// GetExeDir 获取可执行文件所在目录
func GetExeDir() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", err
	}
	return filepath.Dir(exe), nil
}

func baseDir() string {
	exeDir, err := GetExeDir()
	if err != nil {
		// 无法获取可执行文件目录，使用当前目录
		return "."
	}
	return exeDir
}

// LoadConfigWithInfo 从可执行文件同目录的 config.toml 加载配置并返回元信息
func LoadConfigWithInfo() (*AppConfig, LoadConfigInfo, error) {
	return LoadFrom(baseDir())
}

// LoadFrom 从指定目录加载 config.toml 与 .env
func LoadFrom(dir string) (*AppConfig, LoadConfigInfo, error) {
	configPath := filepath.Join(dir, "config.toml")
	info := LoadConfigInfo{Path: configPath}
	config := DefaultConfig()

	// .env 可选，已存在的环境变量优先
	_ = godotenv.Load(filepath.Join(dir, ".env"))

	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		info.FileFound = true
		info.PortSpecified = isPortSpecifiedInToml(data)
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, info, err
		}
	case os.IsNotExist(err):
		// 配置文件不存在，使用默认配置
	default:
		return nil, info, err
	}

	if applyEnv(config) {
		info.PortSpecified = true
	}
	return config, info, nil
}

// applyEnv 环境变量覆盖，返回端口是否被覆盖
func applyEnv(config *AppConfig) bool {
	portSet := false
	if v := strings.TrimSpace(os.Getenv("STOCKMATE_PORT")); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			config.Server.Port = port
			portSet = true
		}
	}
	if v := strings.TrimSpace(os.Getenv("STOCKMATE_DATA_DIR")); v != "" {
		config.Data.DataDir = v
	}
	if v := strings.TrimSpace(os.Getenv("STOCKMATE_LOG_LEVEL")); v != "" {
		config.Log.Level = v
	}
	return portSet
}

// DataDirPath 数据目录绝对路径；相对路径相对于可执行文件目录
func DataDirPath(config *AppConfig) string {
	if filepath.IsAbs(config.Data.DataDir) {
		return config.Data.DataDir
	}
	return filepath.Join(baseDir(), config.Data.DataDir)
}

// EnsureDataDir 确保数据目录及其子目录存在
func EnsureDataDir(config *AppConfig) (string, error) {
	dataDir := DataDirPath(config)

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return "", err
	}

	// 创建子目录
	subdirs := []string{"uploads", "exports", "backups"}
	for _, subdir := range subdirs {
		path := filepath.Join(dataDir, subdir)
		if err := os.MkdirAll(path, 0755); err != nil {
			return "", err
		}
	}

	return dataDir, nil
}

// DBPath SQLite 数据库文件路径
func DBPath(config *AppConfig) string {
	return filepath.Join(DataDirPath(config), config.Data.DBName)
}
