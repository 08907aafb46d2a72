package transfer

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

func writeXLSX[T any](w io.Writer, t table[T], rows []T) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := t.entity
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, t.header()); err != nil {
		return err
	}
	for i, row := range rows {
		if err := setRow(f, sheet, i+2, t.record(row)); err != nil {
			return err
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write xlsx: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, rowNum int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, rowNum)
	if err != nil {
		return err
	}
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", rowNum, err)
	}
	return nil
}

// readXLSX reads the first sheet. Trailing empty cells are dropped by the
// reader, so short rows are padded back to the header width.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyImport
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, nil
	}

	width := len(rows[0])
	for i := 1; i < len(rows); i++ {
		if n := len(rows[i]); n > 0 && n < width {
			padded := make([]string, width)
			copy(padded, rows[i])
			rows[i] = padded
		}
	}
	return rows, nil
}
