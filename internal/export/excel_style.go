package export

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/xuri/excelize/v2"
)

// ApplyDefaultExcelFormatting делает заголовок (строка 1) жирным, ставит на
// него автофильтр и подбирает ширину колонок по содержимому.
func ApplyDefaultExcelFormatting(f *excelize.File, sheet string) error {
	rows, err := f.GetRows(sheet)
	if err != nil {
		return err
	}
	cols := 0
	for _, r := range rows {
		if len(r) > cols {
			cols = len(r)
		}
	}
	if cols == 0 {
		return nil
	}
	last := columnName(cols)

	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil {
		_ = f.SetCellStyle(sheet, "A1", last+"1", style)
	}
	_ = f.AutoFilter(sheet, fmt.Sprintf("A1:%s1", last), nil)

	widths := make([]float64, cols)
	for c := range widths {
		widths[c] = 10
	}
	for rIdx, row := range rows {
		for cIdx, v := range row {
			// арабский текст шире латиницы
			w := float64(visualLen(v)) * 1.2
			if rIdx == 0 {
				w += 1.5
			}
			if w > 60 {
				w = 60
			}
			if w > widths[cIdx] {
				widths[cIdx] = w
			}
		}
	}
	for i, w := range widths {
		col := columnName(i + 1)
		_ = f.SetColWidth(sheet, col, col, w)
	}
	return nil
}

// 1 -> A; 27 -> AA
func columnName(n int) string {
	s := ""
	for n > 0 {
		n--
		s = string(rune('A'+(n%26))) + s
		n /= 26
	}
	return s
}

// visualLen approximates text width by counting runes, treating tabs as 4 chars.
func visualLen(s string) int {
	n := 0
	for _, r := range s {
		if r == '\t' {
			n += 4
		} else {
			n++
		}
	}
	return n
}

var invalidFileRe = regexp.MustCompile(`[\\/:*?"<>|]+`)

func sanitizeFileName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return invalidFileRe.ReplaceAllString(s, "_")
}

func cleanName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "-"
	}
	return s
}
