// =============================================================================
// pain.001 Converter - XLSX Parser Module
// =============================================================================
//
// This module reads XLSX payment sheets into a types.Table, the same shape
// the CSV parser produces, so the rest of the pipeline does not care which
// format a debtor delivers.
//
// SHEET LAYOUT (Expected):
//
//   | Row | Column A | Column B    | Column C               | Column D |
//   |-----|----------|-------------|------------------------|----------|
//   | 1   | Ref      | Beneficiary | IBAN                   | Amount   |
//   | 2   | X1       | Widget GmbH | GB29NWBK60161331926819 | 12.50    |
//
//   Header and data start rows are configurable via config.XLSXSettings.
//   Cell values are read as displayed by Excel (number formats applied).
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"io"
	"strings"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads a payment sheet from an XLSX workbook.
//
// PARAMETERS:
//   - filePath: The path to the XLSX file.
//   - settings: Sheet name, header row and data start row.
//
// RETURNS:
//   - The parsed table. SourceFile is set to filePath.
//   - An error if the workbook or sheet cannot be read.
func Parse(filePath string, settings config.XLSXSettings) (*types.Table, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	table, err := parseWorkbook(f, settings)
	if err != nil {
		return nil, err
	}
	table.SourceFile = filePath
	return table, nil
}

// ParseReader reads a payment sheet from an XLSX stream.
func ParseReader(r io.Reader, settings config.XLSXSettings) (*types.Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	return parseWorkbook(f, settings)
}

// parseWorkbook extracts the configured sheet.
func parseWorkbook(f *excelize.File, settings config.XLSXSettings) (*types.Table, error) {
	sheetName, err := resolveSheet(f, settings.Sheet)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows of sheet %q: %w", sheetName, err)
	}

	headerRow := settings.HeaderRow
	if headerRow <= 0 {
		headerRow = 1
	}
	dataStart := settings.DataStartRow
	if dataStart <= headerRow {
		dataStart = headerRow + 1
	}

	if len(rows) < headerRow {
		return nil, fmt.Errorf("sheet %q has no header row %d", sheetName, headerRow)
	}

	headers := cleanHeaders(rows[headerRow-1])
	if len(headers) == 0 {
		return nil, fmt.Errorf("sheet %q: header row %d is empty", sheetName, headerRow)
	}

	table := &types.Table{Headers: headers, Rows: []types.Row{}}

	for i := dataStart - 1; i < len(rows); i++ {
		row := rows[i]

		if isRowEmpty(row) {
			continue
		}

		fields := make(map[string]string, len(headers))
		for col, header := range headers {
			value := ""
			if col < len(row) {
				value = strings.TrimSpace(row[col])
			}
			fields[header] = value
		}

		table.Rows = append(table.Rows, types.Row{Number: i + 1, Fields: fields})
	}

	return table, nil
}

// resolveSheet returns the configured sheet, or the first sheet when none is
// configured.
func resolveSheet(f *excelize.File, name string) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}

	if name == "" {
		return sheets[0], nil
	}

	for _, sheet := range sheets {
		if strings.EqualFold(sheet, name) {
			return sheet, nil
		}
	}
	return "", fmt.Errorf("sheet %q not found (available: %s)", name, strings.Join(sheets, ", "))
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// cleanHeaders trims headers and drops trailing empty header cells. Inner
// empty cells become "Column_<n>"; duplicates get a "_<n>" suffix.
func cleanHeaders(raw []string) []string {
	last := len(raw) - 1
	for last >= 0 && strings.TrimSpace(raw[last]) == "" {
		last--
	}

	headers := make([]string, 0, last+1)
	seen := make(map[string]int)

	for i := 0; i <= last; i++ {
		header := strings.TrimSpace(raw[i])
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}

		seen[header]++
		if n := seen[header]; n > 1 {
			header = fmt.Sprintf("%s_%d", header, n)
		}

		headers = append(headers, header)
	}

	return headers
}

// isRowEmpty checks if a row contains only empty cells.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
