package excel

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.csv")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadSample_CSV(t *testing.T) {
	path := writeCSV(t, "arr_delay,carrier\n12.5,AA\nNA,DL\n,UA\n-3,AA\n")
	reader := NewSampleReader(path, "arr_delay", "carrier")

	records, err := reader.ReadSample(context.Background())
	if err != nil {
		t.Fatalf("ReadSample failed: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("Expected 4 records, got %d", len(records))
	}
	if records[0].Value != 12.5 || records[0].Category != "AA" {
		t.Errorf("Record 0 wrong: %+v", records[0])
	}
	if !math.IsNaN(records[1].Value) {
		t.Errorf("Expected NA to read as missing, got %v", records[1].Value)
	}
	if !math.IsNaN(records[2].Value) {
		t.Errorf("Expected empty cell to read as missing, got %v", records[2].Value)
	}
	if records[3].Value != -3 {
		t.Errorf("Expected negative value preserved, got %v", records[3].Value)
	}
}

func TestReadSample_Excel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.xlsx")
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"arr_delay", "carrier"},
		{12.5, "AA"},
		{"NA", "DL"},
		{-3, "AA"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatalf("cell name: %v", err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatalf("writing fixture row %d: %v", i, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("saving fixture: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("closing fixture: %v", err)
	}

	reader := NewSampleReader(path, "arr_delay", "carrier")
	records, err := reader.ReadSample(context.Background())
	if err != nil {
		t.Fatalf("ReadSample failed: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("Expected 3 records, got %d", len(records))
	}
	if records[0].Value != 12.5 || records[0].Category != "AA" {
		t.Errorf("Record 0 wrong: %+v", records[0])
	}
	if !math.IsNaN(records[1].Value) || records[1].Category != "DL" {
		t.Errorf("Expected NA cell to read as missing, got %+v", records[1])
	}
	if records[2].Value != -3 {
		t.Errorf("Expected negative value preserved, got %v", records[2].Value)
	}
}

func TestReadSample_MissingCategoryRejected(t *testing.T) {
	path := writeCSV(t, "arr_delay,carrier\n12.5,AA\n3,\n")
	reader := NewSampleReader(path, "arr_delay", "carrier")

	if _, err := reader.ReadSample(context.Background()); err == nil {
		t.Error("Expected error for missing category label")
	}
}

func TestReadSample_UnknownColumnRejected(t *testing.T) {
	path := writeCSV(t, "arr_delay,carrier\n12.5,AA\n")
	reader := NewSampleReader(path, "dep_delay", "carrier")

	if _, err := reader.ReadSample(context.Background()); err == nil {
		t.Error("Expected error for unknown value column")
	}
}

func TestReadSample_FileNotFound(t *testing.T) {
	reader := NewSampleReader("/nonexistent/sample.csv", "v", "c")
	if _, err := reader.ReadSample(context.Background()); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestReadSample_UnparsableValueRejected(t *testing.T) {
	path := writeCSV(t, "arr_delay,carrier\nabc,AA\n")
	reader := NewSampleReader(path, "arr_delay", "carrier")

	if _, err := reader.ReadSample(context.Background()); err == nil {
		t.Error("Expected error for unparsable value")
	}
}
