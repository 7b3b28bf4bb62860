package exporter

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
	"stockmate/internal/calculator"
	"stockmate/internal/model"
	"stockmate/internal/store"
)

const (
	SheetInventory = "Inventaire"
	SheetSummary   = "Synthese"
)

// InventoryHeaders 导出表头，与导入模板一致（导出文件可直接重新导入）
var InventoryHeaders = []string{
	"N° SERIE",
	"MARQUE",
	"MODELE ou DESCRIPTION",
	"TYPE MATERIEL",
	"AFFECTATION",
	"DATE ENTREE",
	"FOURNISSEUR",
	"N° FACTURE",
	"PRIX ACHAT HT",
	"DUREE PROBABLE D'UTILISATION en mois",
	"DATE REEVALUATION",
	"COMMENTAIRES",
	"STATUT",
}

// Exporter 库存导出器
type Exporter struct {
	store *store.Store
	calc  *calculator.Calculator
}

// NewExporter 创建导出器
func NewExporter(store *store.Store, calc *calculator.Calculator) *Exporter {
	return &Exporter{
		store: store,
		calc:  calc,
	}
}

// ExportOptions 导出选项
type ExportOptions struct {
	Query    store.ProductQueryOptions
	Progress func(ProgressEvent)
}

// Export 导出 Excel（Inventaire + Synthese 两个 Sheet）
func (e *Exporter) Export(ctx context.Context, opts ExportOptions) (*excelize.File, error) {
	progress := newProgressReporter(opts.Progress)

	progress.report(5, StageLoad)
	products, err := e.store.ListProducts(ctx, opts.Query)
	if err != nil {
		return nil, fmt.Errorf("读取设备失败: %w", err)
	}

	progress.report(20, StageIndicator)
	groups, err := e.calc.CalculateAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("计算指标失败: %w", err)
	}

	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), SheetInventory); err != nil {
		_ = f.Close()
		return nil, err
	}

	if err := writeInventorySheet(f, products, progress); err != nil {
		_ = f.Close()
		return nil, err
	}

	progress.report(90, StageSummary)
	if err := writeSummarySheet(f, groups); err != nil {
		_ = f.Close()
		return nil, err
	}

	f.SetActiveSheet(0)
	progress.report(100, StageDone)
	return f, nil
}

// ExportToFile 导出并保存到指定路径
func (e *Exporter) ExportToFile(ctx context.Context, path string, opts ExportOptions) error {
	f, err := e.Export(ctx, opts)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("写入导出文件失败: %w", err)
	}
	return nil
}

func writeInventorySheet(f *excelize.File, products []*model.Product, progress *progressReporter) error {
	sheet := SheetInventory

	header := make([]interface{}, len(InventoryHeaders))
	for i, h := range InventoryHeaders {
		header[i] = h
	}
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return fmt.Errorf("写入表头失败: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}
	lastCol, _ := excelize.ColumnNumberToName(len(InventoryHeaders))
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "A", lastCol, 18); err != nil {
		return err
	}
	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return err
	}

	total := len(products)
	for i, p := range products {
		row := i + 2
		cell, _ := excelize.CoordinatesToCellName(1, row)
		values := productRow(p)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("写入第 %d 行失败: %w", row, err)
		}
		if total > 0 && (i+1)%100 == 0 {
			progress.report(20+70*(i+1)/total, fmt.Sprintf("%s %d/%d", StageRows, i+1, total))
		}
	}

	if total > 0 {
		ref := fmt.Sprintf("A1:%s%d", lastCol, total+1)
		if err := f.AutoFilter(sheet, ref, nil); err != nil {
			return err
		}
	}
	return nil
}

func productRow(p *model.Product) []interface{} {
	return []interface{}{
		p.SerialNumber,
		p.Brand,
		p.Model,
		string(p.EquipmentType),
		deref(p.Assignment),
		frenchDate(p.EntryDate),
		deref(p.Supplier),
		deref(p.InvoiceNumber),
		optionalFloat(p.PurchasePriceHT),
		optionalInt(p.UsageDurationMonths),
		frenchDate(p.ReevaluationDate),
		deref(p.Comments),
		string(p.Status),
	}
}

func writeSummarySheet(f *excelize.File, groups []calculator.IndicatorGroup) error {
	if _, err := f.NewSheet(SheetSummary); err != nil {
		return err
	}

	row := 1
	if err := f.SetSheetRow(SheetSummary, "A1", &[]interface{}{"Groupe", "Indicateur", "Valeur", "Unité"}); err != nil {
		return err
	}
	for _, g := range groups {
		for _, ind := range g.Indicators {
			row++
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(SheetSummary, cell, &[]interface{}{g.Name, ind.Name, ind.Value, ind.Unit}); err != nil {
				return err
			}
		}
	}
	return f.SetColWidth(SheetSummary, "A", "D", 24)
}

// ExportFilename 导出文件名
func ExportFilename(now time.Time) string {
	return fmt.Sprintf("inventaire_%s.xlsx", now.Format("20060102_150405"))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}

// frenchDate YYYY-MM-DD → DD/MM/YYYY
func frenchDate(iso *string) string {
	if iso == nil {
		return ""
	}
	t, err := time.Parse("2006-01-02", *iso)
	if err != nil {
		return *iso
	}
	return t.Format("02/01/2006")
}

func optionalFloat(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func optionalInt(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}
