package normalize

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

func workbookBytes(t *testing.T, rows [][]any) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			t.Fatal(err)
		}
		if err := f.SetSheetRow("Sheet1", cell, &row); err != nil {
			t.Fatal(err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func TestNormalizeSpreadsheet(t *testing.T) {
	data := workbookBytes(t, [][]any{
		{"Description", "Quantity", "Total"},
		{"Widget", "2", "$10.00"},
	})

	p, err := Normalize("invoice.xlsx", data)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if p.MIMEType != "text/csv" {
		t.Errorf("MIMEType = %q, want text/csv", p.MIMEType)
	}
	got := string(p.Data)
	if !strings.HasPrefix(got, "Description,Quantity,Total\n") {
		t.Errorf("csv header missing, got %q", got)
	}
	if !strings.Contains(got, "Widget,2,$10.00") {
		t.Errorf("csv data row missing, got %q", got)
	}
}

func TestNormalizeCorruptSpreadsheet(t *testing.T) {
	_, err := Normalize("broken.xlsx", []byte("this is not a workbook"))
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
	if convErr.Filename != "broken.xlsx" {
		t.Errorf("ConversionError.Filename = %q", convErr.Filename)
	}
}

func TestNormalizeCorruptPDF(t *testing.T) {
	_, err := Normalize("broken.pdf", []byte("%PDF-not-really"))
	var convErr *ConversionError
	if !errors.As(err, &convErr) {
		t.Fatalf("expected ConversionError, got %v", err)
	}
}

func TestNormalizePassthrough(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		wantMIME string
	}{
		{"png image", "scan.png", "image/png"},
		{"jpeg image", "scan.jpg", "image/jpeg"},
		{"unknown extension", "blob.xyzzy", "application/octet-stream"},
		{"no extension", "blob", "application/octet-stream"},
	}

	raw := []byte{0x01, 0x02, 0x03}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := Normalize(tt.filename, raw)
			if err != nil {
				t.Fatalf("Normalize: %v", err)
			}
			if p.MIMEType != tt.wantMIME {
				t.Errorf("MIMEType = %q, want %q", p.MIMEType, tt.wantMIME)
			}
			if !bytes.Equal(p.Data, raw) {
				t.Error("payload bytes were modified on passthrough")
			}
		})
	}
}
