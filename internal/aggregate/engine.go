// Package aggregate buckets connection records by calendar month for the charts page.
package aggregate

import (
	"time"

	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// StatusAll is the status filter value that includes every record.
const StatusAll = "all"

// monthNames are locale-invariant English month abbreviations, January first.
var monthNames = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// MonthName returns the short English name of m.
func MonthName(m time.Month) string {
	return monthNames[m-time.January]
}

// Monthly counts records per month of dateOfApplication, keeping only those
// whose status equals statusFilter unless it is StatusAll. Every month is
// present in the result, in calendar order, even with a zero count.
func Monthly(records []models.ConnectionRecord, statusFilter string) models.ChartBucket {
	var bucket models.ChartBucket
	for i := range bucket {
		bucket[i].Month = MonthName(time.January + time.Month(i))
	}

	for _, r := range records {
		if statusFilter != StatusAll && string(r.Status) != statusFilter {
			continue
		}
		if r.DateOfApplication.IsZero() {
			continue
		}
		bucket[r.DateOfApplication.Month()-time.January].Count++
	}

	return bucket
}

// DistinctStatuses returns the status values present in records, in the
// order they first appear.
func DistinctStatuses(records []models.ConnectionRecord) []string {
	seen := make(map[models.Status]struct{})
	statuses := make([]string, 0)
	for _, r := range records {
		if _, ok := seen[r.Status]; ok {
			continue
		}
		seen[r.Status] = struct{}{}
		statuses = append(statuses, string(r.Status))
	}
	return statuses
}

// StatusOptions returns the status selector entries: StatusAll followed by
// the distinct statuses of records.
func StatusOptions(records []models.ConnectionRecord) []string {
	return append([]string{StatusAll}, DistinctStatuses(records)...)
}
