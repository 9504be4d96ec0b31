// Package report writes tabular exports.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
)

const ContentTypeCSV = "text/csv; charset=utf-8"

// WriteCSV writes the header followed by rows. Every row must have as many fields as the header.
func WriteCSV(w io.Writer, header []string, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i, row := range rows {
		if len(row) != len(header) {
			return fmt.Errorf("row %d has %d fields, header has %d", i, len(row), len(header))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// AttachmentDisposition is the Content-Disposition value for a download named filename.
func AttachmentDisposition(filename string) string {
	return fmt.Sprintf("attachment; filename=%q", filename)
}
