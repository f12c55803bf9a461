package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Spok95/school-portal/internal/models"
)

const staffSheet = "الموظفين"

var staffHeader = []string{
	"الاسم",
	"المسمى الوظيفي",
	"الرقم القومي",
	"الرقم الكودي",
	"واتساب",
	"البريد الإلكتروني",
	"الدور",
	"تاريخ الإضافة",
}

// StaffWorkbook builds a one-sheet roster of the school's staff in the order
// given. The sheet is right-to-left.
func StaffWorkbook(staff []models.StaffEntry, loc *time.Location) (*excelize.File, error) {
	if loc == nil {
		loc = time.UTC
	}
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", staffSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}
	rtl := true
	if err := f.SetSheetView(staffSheet, -1, &excelize.ViewOptions{RightToLeft: &rtl}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("sheet view: %w", err)
	}

	if err := setRow(f, 1, staffHeader); err != nil {
		_ = f.Close()
		return nil, err
	}
	for i, e := range staff {
		added := ""
		if e.CreatedAt != nil {
			added = e.CreatedAt.In(loc).Format("2006-01-02")
		}
		row := []string{e.Name, e.JobTitle, e.NationalID, e.CodeNumber, e.Whatsapp, e.Email, e.Role, added}
		if err := setRow(f, i+2, row); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	if err := ApplyDefaultExcelFormatting(f, staffSheet); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("format: %w", err)
	}
	return f, nil
}

// WriteStaff streams the roster workbook to w.
func WriteStaff(w io.Writer, staff []models.StaffEntry, loc *time.Location) error {
	f, err := StaffWorkbook(staff, loc)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func StaffFilename(schoolName string, now time.Time) string {
	return sanitizeFileName(fmt.Sprintf("staff - %s - %s.xlsx", cleanName(schoolName), now.Format("2006-01-02")))
}

// национальные номера и телефоны пишем строками, иначе Excel съест ведущие нули
func setRow(f *excelize.File, row int, vals []string) error {
	for c, v := range vals {
		cell := fmt.Sprintf("%s%d", columnName(c+1), row)
		if err := f.SetCellStr(staffSheet, cell, v); err != nil {
			return fmt.Errorf("set cell %s: %w", cell, err)
		}
	}
	return nil
}
