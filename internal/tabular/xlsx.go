package tabular

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

const defaultSheet = "Sheet1"

func readXLSX(path string) ([][]string, string, error) {
	file, err := excelize.OpenFile(path)
	if err != nil {
		return nil, "", err
	}
	defer file.Close()

	sheets := file.GetSheetList()
	if len(sheets) == 0 {
		return nil, "", ErrEmptyTable
	}
	sheet := sheets[0]
	rows, err := file.GetRows(sheet)
	if err != nil {
		return nil, "", fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	return rows, sheet, nil
}

func writeXLSX(w io.Writer, t *Table) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := t.Sheet
	if sheet == "" {
		sheet = defaultSheet
	}
	if sheet != defaultSheet {
		if err := file.SetSheetName(defaultSheet, sheet); err != nil {
			return fmt.Errorf("rename sheet: %w", err)
		}
	}

	if err := setRow(file, sheet, 1, t.headerRow()); err != nil {
		return err
	}
	values := make([]string, len(t.Columns))
	for idx, record := range t.Records {
		for col, column := range t.Columns {
			values[col] = record.Value(column)
		}
		if err := setRow(file, sheet, idx+2, values); err != nil {
			return err
		}
	}
	return file.Write(w)
}

func setRow(file *excelize.File, sheet string, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return err
	}
	cells := make([]any, len(values))
	for idx, value := range values {
		cells[idx] = value
	}
	if err := file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("write row %d: %w", row, err)
	}
	return nil
}
