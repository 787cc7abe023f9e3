// Package normalize converts raw document bytes into a payload the generative
// model can consume. Spreadsheets are transcoded to delimited text; PDFs are
// validated; everything else passes through with a MIME type inferred from the
// filename extension.
package normalize

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"mime"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/xuri/excelize/v2"
)

// Payload is document content ready for an oracle call.
type Payload struct {
	MIMEType string
	Data     []byte
}

// ConversionError reports a document that could not be normalized. It is a
// per-item failure; the stage runner quarantines the item and moves on.
type ConversionError struct {
	Filename string
	Err      error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("failed to convert %s: %v", e.Filename, e.Err)
}

func (e *ConversionError) Unwrap() error { return e.Err }

// Normalize prepares raw document bytes for oracle consumption.
func Normalize(filename string, data []byte) (Payload, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".xlsx", ".xlsm":
		csvBytes, err := spreadsheetToCSV(data)
		if err != nil {
			return Payload{}, &ConversionError{Filename: filename, Err: err}
		}
		return Payload{MIMEType: "text/csv", Data: csvBytes}, nil
	case ".pdf":
		if err := validatePDF(data); err != nil {
			return Payload{}, &ConversionError{Filename: filename, Err: err}
		}
		return Payload{MIMEType: "application/pdf", Data: data}, nil
	default:
		mimeType := mime.TypeByExtension(ext)
		if mimeType == "" {
			mimeType = "application/octet-stream"
		}
		return Payload{MIMEType: mimeType, Data: data}, nil
	}
}

// spreadsheetToCSV re-encodes the first sheet of a workbook as CSV.
func spreadsheetToCSV(data []byte) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("encode csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// validatePDF rejects corrupt PDFs before they reach the oracle. Validation is
// relaxed to accept the slightly malformed files scanners tend to produce.
func validatePDF(data []byte) error {
	cfg := model.NewDefaultConfiguration()
	cfg.ValidationMode = model.ValidationRelaxed
	if _, err := api.PageCount(bytes.NewReader(data), cfg); err != nil {
		return fmt.Errorf("validate pdf: %w", err)
	}
	return nil
}
