package approval

import (
	"fmt"
	"regexp"
	"strings"
)

var monthPattern = regexp.MustCompile(`^\d{4}-(0[1-9]|1[0-2])$`)

// Report is the monthly export of one request kind, one row per request ordered by creation time.
type Report struct {
	Kind   Kind       `json:"kind"`
	Month  string     `json:"month"`
	Header []string   `json:"header"`
	Rows   [][]string `json:"rows"`
}

func (r Report) Filename() string {
	return fmt.Sprintf("%s-report-%s.csv", strings.ToLower(string(r.Kind)), r.Month)
}

func buildReport(kind Kind, month string, spec kindSpec, requests []Request) Report {
	rows := make([][]string, 0, len(requests))
	for _, r := range requests {
		row := make([]string, 0, len(spec.reportHeader))
		row = append(row, r.EmployeeName)
		row = append(row, spec.reportPeriod(r)...)
		row = append(row, string(r.CEODecision), string(r.HRDecision), string(r.Status))
		rows = append(rows, row)
	}

	return Report{
		Kind:   kind,
		Month:  month,
		Header: append([]string(nil), spec.reportHeader...),
		Rows:   rows,
	}
}
