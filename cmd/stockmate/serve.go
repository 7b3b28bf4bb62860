package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"stockmate/internal/server"
	"stockmate/internal/util"
)

func newServeCmd(a *app) *cobra.Command {
	var (
		port        int
		devMode     bool
		openBrowser bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.cfg
			// 命令行端口仅在配置未显式指定时生效
			if port > 0 && !a.info.PortSpecified {
				cfg.Server.Port = port
			}
			if devMode {
				cfg.Server.DevMode = true
			}

			srv, err := server.NewServer(cfg)
			if err != nil {
				return err
			}

			addr := fmt.Sprintf(":%d", cfg.Server.Port)
			url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

			errCh := make(chan error, 1)
			go func() {
				zap.L().Info("server listening", zap.String("addr", addr))
				errCh <- srv.Run(addr)
			}()

			if openBrowser {
				if err := util.OpenBrowser(url); err != nil {
					fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
				}
			}
			fmt.Printf("服务已启动: %s (按 Ctrl+C 停止)\n", url)

			select {
			case err := <-errCh:
				_ = srv.Shutdown(context.Background())
				return err
			case <-cmd.Context().Done():
			}

			fmt.Println("正在关闭服务...")
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "服务端口 (config.toml 优先)")
	cmd.Flags().BoolVar(&devMode, "dev", false, "开发模式")
	cmd.Flags().BoolVar(&openBrowser, "open", false, "启动后打开浏览器")
	return cmd
}
