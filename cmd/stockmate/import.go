package main

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"stockmate/internal/config"
	"stockmate/internal/importer"
	"stockmate/internal/parser"
	"stockmate/internal/service/backup"
	memstore "stockmate/internal/service/store"
)

func newImportCmd(a *app) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "导入设备文件 (JSON / CSV / XLSX)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			if a.cfg.Data.AutoBackup {
				backups, err := backup.NewManager(filepath.Join(config.DataDirPath(a.cfg), "backups"), st, a.cfg.Data.KeepBackups)
				if err != nil {
					return err
				}
				if _, err := backups.Create(ctx, backup.ReasonImport); err != nil {
					return fmt.Errorf("导入前备份失败: %w", err)
				}
			}

			cache := memstore.NewProductCache()
			coord := importer.NewCoordinator(st, cache, parser.MapperOptions{
				RequireEntryDate: a.cfg.Import.RequireEntryDate,
			})
			if err := coord.ReloadProducts(ctx); err != nil {
				return err
			}

			var report *parser.ImportReport
			out := cmd.OutOrStdout()
			for event := range coord.Import(ctx, importer.ImportOptions{FilePath: args[0]}) {
				switch event.Type {
				case importer.EventError:
					return errors.New(event.Message)
				case importer.EventDone:
					report, _ = event.Data.(*parser.ImportReport)
				case importer.EventProgress, importer.EventInfo:
					if verbose {
						fmt.Fprintln(out, event.Message)
					}
				}
			}
			if report == nil {
				return errors.New("导入未完成")
			}

			printReport(out, report)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "输出进度信息")
	return cmd
}

func printReport(w io.Writer, r *parser.ImportReport) {
	o := r.Outcome
	fmt.Fprintf(w, "文件: %s (%s, 模板 %s)\n", r.Filename, r.Format, r.Template)
	fmt.Fprintf(w, "行数: %d  成功: %d  失败: %d  新增供应商: %d  耗时: %s\n",
		o.Attempted, o.Succeeded, o.Failed, r.SuppliersAdded, r.Duration.Round(time.Millisecond))
	for _, msg := range o.Errors {
		fmt.Fprintln(w, msg)
	}
}
