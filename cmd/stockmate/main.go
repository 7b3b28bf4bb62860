package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockmate/internal/config"
	"stockmate/internal/logging"
	"stockmate/internal/store"
)

// app 各子命令共享的运行时状态
type app struct {
	cfg      *config.AppConfig
	info     config.LoadConfigInfo
	dataDir  string
	logLevel string
	cleanup  func()
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "stockmate",
		Short:         "Inventaire de matériel informatique : import, consultation et export",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.cleanup != nil {
				a.cleanup()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.dataDir, "data-dir", "", "数据目录 (覆盖配置文件)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "日志级别 debug/info/warn/error")

	root.AddCommand(newServeCmd(a), newImportCmd(a), newExportCmd(a))
	return root
}

// setup 加载配置并初始化日志
func (a *app) setup() error {
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败，使用默认配置: %v\n", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}
	if a.dataDir != "" {
		cfg.Data.DataDir = a.dataDir
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	a.info = info

	_, cleanup, err := logging.Init(cfg.Log)
	if err != nil {
		return err
	}
	a.cleanup = cleanup
	return nil
}

// openStore 确保数据目录存在并打开数据库
func (a *app) openStore() (*store.Store, error) {
	dataDir, err := config.EnsureDataDir(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	st, err := store.New(config.DBPath(a.cfg))
	if err != nil {
		return nil, err
	}
	zap.L().Debug("store opened", zap.String("data_dir", dataDir))
	return st, nil
}
