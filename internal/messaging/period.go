package messaging

import "time"

// PeriodKey returns the calendar-month ledger bucket for t, e.g. "2026-08".
// Ledger rows are keyed by UTC month so a batch sent at 23:59 local time
// lands in the same bucket on every node.
func PeriodKey(t time.Time) string {
	return t.UTC().Format("2006-01")
}
