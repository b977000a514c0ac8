package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/octobees/user-directory/api/internal/entity"
	"github.com/octobees/user-directory/api/internal/service"
)

func TestWriteUsers(t *testing.T) {
	users := []entity.User{
		{
			ID:      1,
			Name:    "Leanne Graham",
			Email:   "Sincere@april.biz",
			Phone:   "1-770-736-8031 x56442",
			Website: "hildegard.org",
			Address: entity.UserAddress{City: "Gwenborough"},
			Company: entity.UserCompany{Name: "Romaguera-Crona"},
		},
	}

	var buf bytes.Buffer
	if err := WriteUsers(&buf, users, service.NewContactFormatter("US")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("expected header and one row, got %d", len(rows))
	}
	if rows[0][1] != "Name" || rows[0][6] != "Company" {
		t.Fatalf("unexpected header: %v", rows[0])
	}
	row := rows[1]
	if row[0] != "1" || row[1] != "Leanne Graham" || row[4] != "https://hildegard.org" || row[5] != "Gwenborough" || row[6] != "Romaguera-Crona" {
		t.Fatalf("unexpected row: %v", row)
	}
}

func TestWriteUsers_Empty(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUsers(&buf, nil, service.NewContactFormatter("")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		t.Fatalf("read rows: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected header only, got %d rows", len(rows))
	}
}

func TestWriteUsers_ColumnWidths(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteUsers(&buf, nil, service.NewContactFormatter("US")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()

	for _, w := range columnWidths {
		for _, col := range []string{w.start, w.end} {
			got, err := f.GetColWidth(SheetName, col)
			if err != nil {
				t.Fatalf("read width of %s: %v", col, err)
			}
			if got != w.width {
				t.Fatalf("expected width %v for column %s, got %v", w.width, col, got)
			}
		}
	}
}
