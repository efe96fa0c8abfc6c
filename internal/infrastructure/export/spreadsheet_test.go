package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/garyjia/promoter-portal/internal/application/port"
	"github.com/garyjia/promoter-portal/internal/domain/entity"
)

func TestExport_WritesHeaderAndRows(t *testing.T) {
	exporter := NewXLSXExporter(time.UTC, zap.NewNop())
	rows := []port.ExportRow{
		{
			Kind:           entity.KindCashAdvance,
			RequesterName:  "Ana Souza",
			RequesterEmail: "ana@example.com",
			Amount:         decimal.NewNullDecimal(decimal.RequireFromString("150.50")),
			RequestDate:    time.Date(2024, 5, 10, 0, 0, 0, 0, time.UTC),
			Status:         entity.StatusPending,
			Notes:          "viagem",
		},
		{
			Kind:          entity.KindMileage,
			RequesterName: "Bruno Lima",
			Amount:        decimal.NullDecimal{},
			RequestDate:   time.Date(2024, 5, 11, 0, 0, 0, 0, time.UTC),
			Status:        entity.StatusPending,
		},
	}

	content, err := exporter.Export(rows)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(content))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetName}, f.GetSheetList())

	header, _ := f.GetCellValue(SheetName, "A1")
	assert.Equal(t, "Tipo", header)

	kind, _ := f.GetCellValue(SheetName, "A2")
	assert.Equal(t, "Adiantamento", kind)
	amount, _ := f.GetCellValue(SheetName, "D2")
	assert.Equal(t, "150.5", amount)
	date, _ := f.GetCellValue(SheetName, "E2")
	assert.Equal(t, "10/05/2024", date)
	status, _ := f.GetCellValue(SheetName, "F2")
	assert.Equal(t, "Pendente", status)

	empty, _ := f.GetCellValue(SheetName, "D3")
	assert.Empty(t, empty)
	name, _ := f.GetCellValue(SheetName, "B3")
	assert.Equal(t, "Bruno Lima", name)
}

func TestExport_EmptyQueue(t *testing.T) {
	content, err := NewXLSXExporter(nil, zap.NewNop()).Export(nil)
	require.NoError(t, err)
	assert.NotEmpty(t, content)
}
