// Package export renders the admin pending queue as an Excel workbook.
package export

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	ierr "github.com/garyjia/promoter-portal/internal/errors"
)

// SheetName is the single sheet of the exported workbook
const SheetName = "Pendentes"

var headers = []string{"Tipo", "Promotor", "E-mail", "Valor (R$)", "Data", "Status", "Observações"}

// XLSXExporter implements port.SpreadsheetExporter with excelize
type XLSXExporter struct {
	location *time.Location
	logger   *zap.Logger
}

// NewXLSXExporter creates an exporter printing dates in loc
func NewXLSXExporter(loc *time.Location, logger *zap.Logger) *XLSXExporter {
	if loc == nil {
		loc = time.UTC
	}
	return &XLSXExporter{location: loc, logger: logger}
}

// Export writes one row per request after a bold header row
func (e *XLSXExporter) Export(rows []port.ExportRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, exportErr(err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, exportErr(err)
	}

	for col, h := range headers {
		e.setCell(f, cellName(col, 1), h)
	}
	if err := f.SetCellStyle(SheetName, "A1", cellName(len(headers)-1, 1), bold); err != nil {
		return nil, exportErr(err)
	}

	for i, r := range rows {
		line := i + 2
		e.setCell(f, cellName(0, line), r.Kind.Label())
		e.setCell(f, cellName(1, line), r.RequesterName)
		e.setCell(f, cellName(2, line), r.RequesterEmail)
		if r.Amount.Valid {
			e.setCell(f, cellName(3, line), r.Amount.Decimal.InexactFloat64())
		}
		e.setCell(f, cellName(4, line), r.RequestDate.In(e.location).Format("02/01/2006"))
		e.setCell(f, cellName(5, line), r.Status.Label())
		e.setCell(f, cellName(6, line), r.Notes)
	}

	if err := f.SetColWidth(SheetName, "A", "G", 20); err != nil {
		return nil, exportErr(err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, exportErr(err)
	}

	e.logger.Info("Pending queue exported", zap.Int("rows", len(rows)))
	return buf.Bytes(), nil
}

func (e *XLSXExporter) setCell(f *excelize.File, cell string, value interface{}) {
	if err := f.SetCellValue(SheetName, cell, value); err != nil {
		e.logger.Warn("Failed to set cell value", zap.String("cell", cell), zap.Error(err))
	}
}

func cellName(col, row int) string {
	name, err := excelize.CoordinatesToCellName(col+1, row)
	if err != nil {
		return fmt.Sprintf("A%d", row)
	}
	return name
}

func exportErr(err error) error {
	return ierr.WithError(err).
		WithMessage("build xlsx").
		WithHint("Não foi possível gerar a planilha.").
		Mark(ierr.ErrStorage)
}

// Verify interface compliance
var _ port.SpreadsheetExporter = (*XLSXExporter)(nil)
