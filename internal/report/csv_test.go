package report_test

import (
	"bytes"
	"testing"

	"people-desk/internal/report"

	"github.com/stretchr/testify/assert"
)

func TestWriteCSV(t *testing.T) {
	t.Run("success header and rows", func(t *testing.T) {
		var buf bytes.Buffer
		err := report.WriteCSV(&buf,
			[]string{"Employee Name", "From", "To"},
			[][]string{{"Ann", "2024-03-01", "2024-03-02"}},
		)

		assert.NoError(t, err)
		assert.Equal(t, "Employee Name,From,To\nAnn,2024-03-01,2024-03-02\n", buf.String())
	})

	t.Run("success quotes separators", func(t *testing.T) {
		var buf bytes.Buffer
		err := report.WriteCSV(&buf, []string{"Employee Name"}, [][]string{{`Doe, "JJ"`}})

		assert.NoError(t, err)
		assert.Equal(t, "Employee Name\n\"Doe, \"\"JJ\"\"\"\n", buf.String())
	})

	t.Run("success empty report has header only", func(t *testing.T) {
		var buf bytes.Buffer
		err := report.WriteCSV(&buf, []string{"A", "B"}, nil)

		assert.NoError(t, err)
		assert.Equal(t, "A,B\n", buf.String())
	})

	t.Run("negative ragged row", func(t *testing.T) {
		var buf bytes.Buffer
		err := report.WriteCSV(&buf, []string{"A", "B"}, [][]string{{"only"}})

		assert.Error(t, err)
	})
}

func TestAttachmentDisposition(t *testing.T) {
	assert.Equal(t, `attachment; filename="leave-report-2024-03.csv"`, report.AttachmentDisposition("leave-report-2024-03.csv"))
}
