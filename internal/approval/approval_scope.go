package approval

import (
	"strings"
	"time"

	approvalerrors "people-desk/internal/approval/errors"
)

type Scope string

const (
	ScopeToday Scope = "today"
	ScopeAll   Scope = "all"
)

// ParseScope defaults to today when v is empty.
func ParseScope(v string) (Scope, error) {
	switch Scope(strings.ToLower(strings.TrimSpace(v))) {
	case "", ScopeToday:
		return ScopeToday, nil
	case ScopeAll:
		return ScopeAll, nil
	default:
		return "", approvalerrors.ErrInvalidScope
	}
}

// ScopeQuery selects which approver queue entries are listed. A nil Location uses the service default.
type ScopeQuery struct {
	Scope    Scope
	Location *time.Location
}

// ResolveLocation returns the IANA zone named by tz, or fallback when tz is empty.
func ResolveLocation(tz string, fallback *time.Location) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		if fallback == nil {
			return time.Local, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, approvalerrors.ErrInvalidTimezone
	}
	return loc, nil
}

// dayWindow is the caller's local calendar day containing now, from 00:00:00.000 to 23:59:59.999.
func dayWindow(now time.Time, loc *time.Location) (time.Time, time.Time) {
	local := now.In(loc)
	y, m, d := local.Date()
	from := time.Date(y, m, d, 0, 0, 0, 0, loc)
	to := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc)
	return from, to
}

// monthWindow returns [first day of month, first day of next month) for a YYYY-MM string.
func monthWindow(month string, loc *time.Location) (time.Time, time.Time, error) {
	month = strings.TrimSpace(month)
	if !monthPattern.MatchString(month) {
		return time.Time{}, time.Time{}, approvalerrors.ErrInvalidMonth
	}
	t, err := time.ParseInLocation("2006-01", month, loc)
	if err != nil {
		return time.Time{}, time.Time{}, approvalerrors.ErrInvalidMonth
	}
	return t, t.AddDate(0, 1, 0), nil
}
