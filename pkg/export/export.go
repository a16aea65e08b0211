package export

import (
	"fmt"
	"strings"
)

// Format is a supported export encoding.
type Format string

const (
	FormatCSV Format = "csv"
	FormatPDF Format = "pdf"
)

// ParseFormat resolves a user supplied format, defaulting to CSV.
func ParseFormat(raw string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(raw))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unsupported export format %q", raw)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv"
}

// Table is tabular export content. Each row holds one cell per column.
type Table struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// Renderer encodes a Table.
type Renderer interface {
	Render(table Table) ([]byte, error)
}

// RendererFor returns the renderer for a format.
func RendererFor(format Format) Renderer {
	if format == FormatPDF {
		return NewPDFExporter()
	}
	return NewCSVExporter()
}
