package approval

import (
	"strings"
	"time"

	approvalerrors "people-desk/internal/approval/errors"
	"people-desk/internal/shared/apperror"
)

const (
	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// kindSpec holds everything that differs between request kinds. The workflow itself is shared.
type kindSpec struct {
	refPrefix      string
	reasonRequired bool
	applyPeriod    func(req SubmitRequest, r *Request) error
	reportHeader   []string
	reportPeriod   func(r Request) []string
}

var kindSpecs = map[Kind]kindSpec{
	KindLeave: {
		refPrefix:      "LV",
		reasonRequired: true,
		applyPeriod:    applyLeavePeriod,
		reportHeader:   []string{"Employee Name", "From", "To", "CEO Decision", "HR Decision", "Final Status"},
		reportPeriod: func(r Request) []string {
			return []string{formatDate(r.FromDate), formatDate(r.ToDate)}
		},
	},
	KindPermission: {
		refPrefix:      "PM",
		reasonRequired: false,
		applyPeriod:    applyPermissionPeriod,
		reportHeader:   []string{"Employee Name", "Date", "From", "To", "CEO Decision", "HR Decision", "Final Status"},
		reportPeriod: func(r Request) []string {
			return []string{formatDate(r.Date), r.FromTime, r.ToTime}
		},
	},
}

func specFor(kind Kind) (kindSpec, error) {
	spec, ok := kindSpecs[kind]
	if !ok {
		return kindSpec{}, approvalerrors.ErrInvalidKind
	}
	return spec, nil
}

func applyLeavePeriod(req SubmitRequest, r *Request) error {
	if strings.TrimSpace(req.FromDate) == "" {
		return apperror.RequiredField("From Date")
	}
	if strings.TrimSpace(req.ToDate) == "" {
		return apperror.RequiredField("To Date")
	}
	from, err := parseDate(req.FromDate)
	if err != nil {
		return err
	}
	to, err := parseDate(req.ToDate)
	if err != nil {
		return err
	}
	if from.After(to) {
		return approvalerrors.ErrInvalidDateRange
	}
	r.FromDate = &from
	r.ToDate = &to
	return nil
}

func applyPermissionPeriod(req SubmitRequest, r *Request) error {
	if strings.TrimSpace(req.Date) == "" {
		return apperror.RequiredField("Date")
	}
	if strings.TrimSpace(req.FromTime) == "" {
		return apperror.RequiredField("From Time")
	}
	if strings.TrimSpace(req.ToTime) == "" {
		return apperror.RequiredField("To Time")
	}
	date, err := parseDate(req.Date)
	if err != nil {
		return err
	}
	from, err := parseClock(req.FromTime)
	if err != nil {
		return err
	}
	to, err := parseClock(req.ToTime)
	if err != nil {
		return err
	}
	if !from.Before(to) {
		return approvalerrors.ErrInvalidTimeRange
	}
	r.Date = &date
	r.FromTime = from.Format(timeLayout)
	r.ToTime = to.Format(timeLayout)
	return nil
}

func parseDate(v string) (time.Time, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, approvalerrors.ErrInvalidDateFormat
	}
	return t, nil
}

func parseClock(v string) (time.Time, error) {
	t, err := time.Parse(timeLayout, strings.TrimSpace(v))
	if err != nil {
		return time.Time{}, approvalerrors.ErrInvalidTimeFormat
	}
	return t, nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(dateLayout)
}
