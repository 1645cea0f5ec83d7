package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/m3rciful/orderbot/internal/orders"
)

func TestOrdersWorkbook(t *testing.T) {
	list := []orders.Order{
		{ID: 1, Owner: 9, ClientName: "Acme", Budget: decimal.NewFromInt(100), Deadline: "2025-01-01", Status: orders.StatusActive},
		{ID: 4, Owner: 9, ClientName: "Globex", Budget: decimal.RequireFromString("12.5"), Deadline: "2025-02-03", Status: orders.StatusInProgress},
	}
	now := time.Date(2025, 3, 4, 5, 6, 7, 0, time.UTC)
	wb, err := Orders(list, now)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.HasPrefix(wb.FileName, "orders_20250304_050607_") || !strings.HasSuffix(wb.FileName, ".xlsx") {
		t.Fatalf("unexpected file name %q", wb.FileName)
	}

	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()

	if sheets := f.GetSheetList(); len(sheets) != 1 || sheets[0] != SheetName {
		t.Fatalf("sheets = %v", sheets)
	}
	rows, err := f.GetRows(SheetName, excelize.Options{RawCellValue: true})
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != "ID,Client,Budget,Deadline,Status" {
		t.Fatalf("header = %v", rows[0])
	}
	if strings.Join(rows[2], ",") != "4,Globex,12.5,2025-02-03,In Progress" {
		t.Fatalf("row = %v", rows[2])
	}
}

func TestEmptyWorkbookHasHeader(t *testing.T) {
	wb, err := Orders(nil, time.Now())
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	f, err := excelize.OpenReader(bytes.NewReader(wb.Data))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	rows, _ := f.GetRows(SheetName)
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}
