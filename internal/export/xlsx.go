package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/octobees/user-directory/api/internal/entity"
	"github.com/octobees/user-directory/api/internal/service"
)

// ContentType is the MIME type of the generated workbook.
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// SheetName is the worksheet holding the exported users.
const SheetName = "Users"

var headers = []interface{}{"ID", "Name", "Email", "Phone", "Website", "City", "Company"}

var columnWidths = []struct {
	start, end string
	width      float64
}{
	{"B", "C", 28},
	{"D", "E", 24},
	{"F", "G", 22},
}

// WriteUsers renders users as a single-sheet workbook into w.
func WriteUsers(w io.Writer, users []entity.User, formatter *service.ContactFormatter) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("create header style: %w", err)
	}
	if err := f.SetCellStyle(SheetName, "A1", "G1", style); err != nil {
		return fmt.Errorf("apply header style: %w", err)
	}

	for i, u := range users {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		contact := formatter.Format(u)
		row := []interface{}{u.ID, u.Name, u.Email, u.Phone, contact.WebsiteURL, u.City(), u.CompanyName()}
		if err := f.SetSheetRow(SheetName, cell, &row); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	for _, w := range columnWidths {
		if err := f.SetColWidth(SheetName, w.start, w.end, w.width); err != nil {
			return fmt.Errorf("set column width %s:%s: %w", w.start, w.end, err)
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
