package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// extractExcel renders each non-empty sheet as a "## name" heading followed by
// its rows, cells separated by " | ". Blank rows and trailing empty cells are
// dropped. Each rendered sheet counts as one page.
func extractExcel(content []byte) (string, int, error) {
	wb, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return "", 0, fmt.Errorf("open workbook: %w", err)
	}
	defer wb.Close()

	var sections []string
	for _, sheet := range wb.GetSheetList() {
		rows, err := wb.GetRows(sheet)
		if err != nil {
			return "", 0, fmt.Errorf("read sheet %q: %w", sheet, err)
		}
		var lines []string
		for _, row := range rows {
			end := len(row)
			for end > 0 && strings.TrimSpace(row[end-1]) == "" {
				end--
			}
			if end == 0 {
				continue
			}
			lines = append(lines, strings.Join(row[:end], " | "))
		}
		if len(lines) > 0 {
			sections = append(sections, "## "+sheet+"\n"+strings.Join(lines, "\n"))
		}
	}
	return strings.Join(sections, "\n\n"), len(sections), nil
}
