// Package export renders orders as an .xlsx workbook.
package export

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/orderbot/internal/orders"
)

// SheetName is the worksheet that holds the orders.
const SheetName = "Orders"

// MIME is the content type of the produced workbook.
const MIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var headers = []any{"ID", "Client", "Budget", "Deadline", "Status"}

// Workbook is a rendered spreadsheet ready to upload.
type Workbook struct {
	FileName string
	Data     []byte
}

// Orders writes list into a single-sheet workbook.
func Orders(list []orders.Order, now time.Time) (Workbook, error) {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return Workbook{}, fmt.Errorf("rename sheet: %w", err)
	}

	money, err := f.NewStyle(&excelize.Style{NumFmt: 2})
	if err != nil {
		return Workbook{}, fmt.Errorf("money style: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return Workbook{}, fmt.Errorf("header row: %w", err)
	}

	for i, o := range list {
		row := i + 2
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return Workbook{}, err
		}
		values := []any{o.ID, o.ClientName, o.Budget.InexactFloat64(), o.Deadline, o.Status.Label()}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return Workbook{}, fmt.Errorf("row %d: %w", row, err)
		}
		budgetCell, _ := excelize.CoordinatesToCellName(3, row)
		if err := f.SetCellStyle(SheetName, budgetCell, budgetCell, money); err != nil {
			return Workbook{}, fmt.Errorf("row %d style: %w", row, err)
		}
	}
	_ = f.SetColWidth(SheetName, "B", "B", 28)
	_ = f.SetColWidth(SheetName, "D", "E", 14)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return Workbook{}, fmt.Errorf("write workbook: %w", err)
	}
	name := fmt.Sprintf("orders_%s_%s.xlsx", now.Format("20060102_150405"), uuid.NewString()[:8])
	return Workbook{FileName: name, Data: buf.Bytes()}, nil
}
