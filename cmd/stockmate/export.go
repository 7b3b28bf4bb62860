package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"stockmate/internal/calculator"
	"stockmate/internal/exporter"
	"stockmate/internal/importer"
	"stockmate/internal/model"
	"stockmate/internal/parser"
	memstore "stockmate/internal/service/store"
	"stockmate/internal/store"
)

func newExportCmd(a *app) *cobra.Command {
	var status string

	cmd := &cobra.Command{
		Use:   "export <out.xlsx>",
		Short: "导出库存到 Excel",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var query store.ProductQueryOptions
			if status != "" {
				s := model.ProductStatus(strings.ToUpper(status))
				if !s.Valid() {
					return fmt.Errorf("invalid --status %q", status)
				}
				query.Status = &s
			}

			st, err := a.openStore()
			if err != nil {
				return err
			}
			defer st.Close()

			ctx := cmd.Context()
			cache := memstore.NewProductCache()
			if err := importer.NewCoordinator(st, cache, parser.MapperOptions{}).ReloadProducts(ctx); err != nil {
				return err
			}

			exp := exporter.NewExporter(st, calculator.NewCalculator(st, cache))
			if err := exp.ExportToFile(ctx, args[0], exporter.ExportOptions{Query: query}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "已导出 %s\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "只导出指定状态 (EN_STOCK/SAV/EN_UTILISATION/HS)")
	return cmd
}
