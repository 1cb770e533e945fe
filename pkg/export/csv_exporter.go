package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Dataset is a titled table ready for export.
type Dataset struct {
	Title   string
	Headers []string
	Rows    [][]string
}

// CSVExporter renders datasets as CSV.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// ContentType is the MIME type of the rendered output.
func (e *CSVExporter) ContentType() string { return "text/csv" }

// Extension is the file extension of the rendered output.
func (e *CSVExporter) Extension() string { return "csv" }

// Render produces CSV bytes. Short rows are padded and long rows truncated to
// the header width.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		if err := writer.Write(fitRow(row, len(data.Headers))); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

func fitRow(row []string, width int) []string {
	record := make([]string, width)
	copy(record, row)
	return record
}
