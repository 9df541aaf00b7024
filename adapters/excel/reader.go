package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"countglm/domain/core"
	"countglm/domain/sample"

	"github.com/xuri/excelize/v2"
)

// SampleReader reads (value, category) records from an Excel or CSV
// file. The value column may contain missing entries; the category
// column may not.
type SampleReader struct {
	filePath       string
	fileType       string // "xlsx" or "csv"
	valueColumn    string
	categoryColumn string
}

// NewSampleReader creates a reader for both Excel and CSV files,
// dispatching on the file extension.
func NewSampleReader(filePath, valueColumn, categoryColumn string) *SampleReader {
	ext := strings.ToLower(filepath.Ext(filePath))
	fileType := "xlsx"
	if ext == ".csv" {
		fileType = "csv"
	}
	return &SampleReader{
		filePath:       filePath,
		fileType:       fileType,
		valueColumn:    valueColumn,
		categoryColumn: categoryColumn,
	}
}

// ReadSample reads the configured columns into an ordered record
// sequence.
func (r *SampleReader) ReadSample(ctx context.Context) ([]sample.Record, error) {
	log.Printf("[SampleReader] Reading %s file: %s", r.fileType, r.filePath)

	if _, err := os.Stat(r.filePath); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(r.fileType), r.filePath)
	}

	var rows [][]string
	var err error
	switch r.fileType {
	case "csv":
		rows, err = r.readCSVRows()
	case "xlsx":
		rows, err = r.readExcelRows()
	default:
		return nil, fmt.Errorf("unsupported file type: %s", r.fileType)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%s file must have a header row and at least one data row", r.fileType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return r.processRows(rows)
}

func (r *SampleReader) readExcelRows() ([][]string, error) {
	f, err := excelize.OpenFile(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(f.GetSheetName(0))
	if err != nil {
		return nil, fmt.Errorf("failed to read first sheet: %w", err)
	}
	return rows, nil
}

func (r *SampleReader) readCSVRows() ([][]string, error) {
	file, err := os.Open(r.filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	rows, err := csv.NewReader(file).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows maps header names to column positions and converts each
// data row into a record. Empty or NA-marked value cells become NaN;
// an empty category cell violates the input contract and fails.
func (r *SampleReader) processRows(rows [][]string) ([]sample.Record, error) {
	header := rows[0]
	valueIdx, categoryIdx := -1, -1
	for i, h := range header {
		switch strings.TrimSpace(h) {
		case r.valueColumn:
			valueIdx = i
		case r.categoryColumn:
			categoryIdx = i
		}
	}
	if valueIdx < 0 {
		return nil, core.NewValidationError("value column",
			fmt.Sprintf("column %q not found in header", r.valueColumn))
	}
	if categoryIdx < 0 {
		return nil, core.NewValidationError("category column",
			fmt.Sprintf("column %q not found in header", r.categoryColumn))
	}

	records := make([]sample.Record, 0, len(rows)-1)
	for rowNum, row := range rows[1:] {
		category := ""
		if categoryIdx < len(row) {
			category = strings.TrimSpace(row[categoryIdx])
		}
		if category == "" {
			return nil, core.NewValidationError("category",
				fmt.Sprintf("missing label at data row %d", rowNum+1))
		}

		value := math.NaN()
		if valueIdx < len(row) {
			raw := strings.TrimSpace(row[valueIdx])
			if raw != "" && !strings.EqualFold(raw, "NA") {
				parsed, err := strconv.ParseFloat(raw, 64)
				if err != nil {
					return nil, fmt.Errorf("unparsable value %q at data row %d: %w", raw, rowNum+1, err)
				}
				value = parsed
			}
		}

		records = append(records, sample.Record{Value: value, Category: category})
	}

	log.Printf("[SampleReader] Read %d records", len(records))
	return records, nil
}
