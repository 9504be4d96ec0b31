package approval

import (
	"testing"
	"time"

	approvalerrors "people-desk/internal/approval/errors"
	"people-desk/internal/shared/apperror"

	"github.com/stretchr/testify/assert"
)

func TestApplyLeavePeriod(t *testing.T) {
	cases := []struct {
		name    string
		req     SubmitRequest
		wantErr error
	}{
		{"success single day", SubmitRequest{FromDate: "2024-03-01", ToDate: "2024-03-01"}, nil},
		{"success range", SubmitRequest{FromDate: "2024-03-01", ToDate: "2024-03-05"}, nil},
		{"bad format", SubmitRequest{FromDate: "01/03/2024", ToDate: "2024-03-05"}, approvalerrors.ErrInvalidDateFormat},
		{"inverted", SubmitRequest{FromDate: "2024-03-05", ToDate: "2024-03-01"}, approvalerrors.ErrInvalidDateRange},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var r Request
			err := applyLeavePeriod(tc.req, &r)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				assert.Nil(t, r.FromDate)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tc.req.FromDate, formatDate(r.FromDate))
			assert.Equal(t, tc.req.ToDate, formatDate(r.ToDate))
		})
	}

	t.Run("missing to date", func(t *testing.T) {
		var r Request
		err := applyLeavePeriod(SubmitRequest{FromDate: "2024-03-01"}, &r)
		assert.True(t, apperror.Is(err, apperror.CodeInvalidInput))
		assert.Contains(t, err.Error(), "To Date")
	})
}

func TestApplyPermissionPeriod(t *testing.T) {
	t.Run("success normalises clock", func(t *testing.T) {
		var r Request
		err := applyPermissionPeriod(SubmitRequest{Date: "2024-03-01", FromTime: "9:05", ToTime: "11:00"}, &r)

		assert.NoError(t, err)
		assert.Equal(t, "09:05", r.FromTime)
		assert.Equal(t, "11:00", r.ToTime)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), *r.Date)
	})

	t.Run("equal times refused", func(t *testing.T) {
		var r Request
		err := applyPermissionPeriod(SubmitRequest{Date: "2024-03-01", FromTime: "10:00", ToTime: "10:00"}, &r)
		assert.ErrorIs(t, err, approvalerrors.ErrInvalidTimeRange)
	})

	t.Run("bad clock", func(t *testing.T) {
		var r Request
		err := applyPermissionPeriod(SubmitRequest{Date: "2024-03-01", FromTime: "25:00", ToTime: "26:00"}, &r)
		assert.ErrorIs(t, err, approvalerrors.ErrInvalidTimeFormat)
	})

	t.Run("missing date", func(t *testing.T) {
		var r Request
		err := applyPermissionPeriod(SubmitRequest{FromTime: "10:00", ToTime: "11:00"}, &r)
		assert.Contains(t, err.Error(), "Date")
	})
}

func TestWindows(t *testing.T) {
	jakarta, err := time.LoadLocation("Asia/Jakarta")
	assert.NoError(t, err)

	t.Run("day window in caller zone", func(t *testing.T) {
		// 20:00 UTC on the 14th is already the 15th in Jakarta.
		now := time.Date(2024, 3, 14, 20, 0, 0, 0, time.UTC)
		from, to := dayWindow(now, jakarta)

		assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, jakarta), from)
		assert.Equal(t, time.Date(2024, 3, 15, 23, 59, 59, 999000000, jakarta), to)
	})

	t.Run("month window", func(t *testing.T) {
		from, to, err := monthWindow("2024-12", time.UTC)
		assert.NoError(t, err)
		assert.Equal(t, time.Date(2024, 12, 1, 0, 0, 0, 0, time.UTC), from)
		assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), to)
	})

	t.Run("month invalid", func(t *testing.T) {
		for _, m := range []string{"2024-13", "2024-1", "March", "", "2024-00"} {
			_, _, err := monthWindow(m, time.UTC)
			assert.ErrorIs(t, err, approvalerrors.ErrInvalidMonth, m)
		}
	})

	t.Run("scope", func(t *testing.T) {
		s, err := ParseScope("")
		assert.NoError(t, err)
		assert.Equal(t, ScopeToday, s)
		s, err = ParseScope("ALL")
		assert.NoError(t, err)
		assert.Equal(t, ScopeAll, s)
		_, err = ParseScope("week")
		assert.ErrorIs(t, err, approvalerrors.ErrInvalidScope)
	})
}

func TestBuildReport(t *testing.T) {
	from := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC)

	leave := buildReport(KindLeave, "2024-03", kindSpecs[KindLeave], []Request{{
		EmployeeName: "Ann", FromDate: &from, ToDate: &to,
		CEODecision: DecisionApproved, HRDecision: DecisionPending, Status: DecisionPending,
	}})
	assert.Equal(t, []string{"Employee Name", "From", "To", "CEO Decision", "HR Decision", "Final Status"}, leave.Header)
	assert.Equal(t, [][]string{{"Ann", "2024-03-01", "2024-03-02", "APPROVED", "PENDING", "PENDING"}}, leave.Rows)
	assert.Equal(t, "leave-report-2024-03.csv", leave.Filename())

	perm := buildReport(KindPermission, "2024-03", kindSpecs[KindPermission], []Request{{
		EmployeeName: "Bo", Date: &from, FromTime: "10:00", ToTime: "11:00",
		CEODecision: DecisionRejected, HRDecision: DecisionPending, Status: DecisionRejected,
	}})
	assert.Len(t, perm.Header, 7)
	assert.Equal(t, []string{"Bo", "2024-03-01", "10:00", "11:00", "REJECTED", "PENDING", "REJECTED"}, perm.Rows[0])
	assert.Equal(t, "permission-report-2024-03.csv", perm.Filename())
}
