package material

import (
	"strings"
	"time"
)

// ReportingWindow is the inclusive calendar-month interval deciding which
// material requests count toward a payroll month.
type ReportingWindow struct {
	Start time.Time
	End   time.Time
}

// NewReportingWindow bounds the 1-indexed month in the given civil-time
// location, from the first instant of the month to its last millisecond.
func NewReportingWindow(year, month int, loc *time.Location) ReportingWindow {
	if loc == nil {
		loc = time.Local
	}
	start := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, loc)
	end := start.AddDate(0, 1, 0).Add(-time.Millisecond)
	return ReportingWindow{Start: start, End: end}
}

// ContainsMillis reports whether an epoch-millisecond timestamp falls
// inside the window, bounds inclusive. Zero (unresponded) is never inside.
func (w ReportingWindow) ContainsMillis(ms int64) bool {
	if ms == 0 {
		return false
	}
	return ms >= w.Start.UnixMilli() && ms <= w.End.UnixMilli()
}

// CountsTowardCost is the ledger rule: only an explicitly approved request
// whose response landed inside the window, raised by a username matching
// the filter, contributes to cost. Status matching is exact and
// case-sensitive; the username filter is a case-insensitive substring,
// empty matches all.
func CountsTowardCost(r MaterialRequest, window ReportingWindow, usernameFilter string) bool {
	if r.Status != StatusApproved {
		return false
	}
	if usernameFilter != "" && !strings.Contains(strings.ToLower(r.Username), strings.ToLower(usernameFilter)) {
		return false
	}
	return window.ContainsMillis(r.RespondedAt)
}

// FilterLedger returns the subset of requests that count toward cost for
// the window and filter.
func FilterLedger(requests []MaterialRequest, window ReportingWindow, usernameFilter string) []MaterialRequest {
	out := make([]MaterialRequest, 0, len(requests))
	for _, r := range requests {
		if CountsTowardCost(r, window, usernameFilter) {
			out = append(out, r)
		}
	}
	return out
}
