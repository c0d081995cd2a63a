// Package filter narrows a record collection by search term and date range.
package filter

import (
	"strings"

	"github.com/stwalsh4118/mppl/dashboard/internal/models"
)

// DateRange bounds dateOfApplication, inclusive on both ends.
// It only applies when both Start and End are set.
type DateRange struct {
	Start *models.Date `json:"start"`
	End   *models.Date `json:"end"`
}

// Complete reports whether both ends of the range are set.
func (r DateRange) Complete() bool {
	return r.Start != nil && !r.Start.IsZero() && r.End != nil && !r.End.IsZero()
}

// Contains reports whether d falls within the range. An incomplete range
// contains every day.
func (r DateRange) Contains(d models.Date) bool {
	if !r.Complete() {
		return true
	}
	return !d.Before(*r.Start) && !d.After(*r.End)
}

// Criteria is the set of predicates applied to the grid.
type Criteria struct {
	Search string    `json:"search"`
	Range  DateRange `json:"range"`
}

// Active reports whether any predicate would exclude records.
func (c Criteria) Active() bool {
	return normalize(c.Search) != "" || c.Range.Complete()
}

// Apply returns the records matching criteria, preserving their order.
// The search predicate runs first, then the date predicate over its result.
func Apply(records []models.ConnectionRecord, c Criteria) []models.ConnectionRecord {
	if !c.Active() {
		return records
	}
	filtered := records

	if normalize(c.Search) != "" {
		filtered = keep(filtered, func(r models.ConnectionRecord) bool {
			return MatchesSearch(r.IDNumber.String(), c.Search)
		})
	}

	if c.Range.Complete() {
		filtered = keep(filtered, func(r models.ConnectionRecord) bool {
			return c.Range.Contains(r.DateOfApplication)
		})
	}

	return filtered
}

// MatchesSearch reports whether idNumber starts with the search term after
// trimming and lower-casing both. A blank term matches everything.
func MatchesSearch(idNumber, search string) bool {
	return strings.HasPrefix(normalize(idNumber), normalize(search))
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func keep(records []models.ConnectionRecord, pred func(models.ConnectionRecord) bool) []models.ConnectionRecord {
	out := make([]models.ConnectionRecord, 0, len(records))
	for _, r := range records {
		if pred(r) {
			out = append(out, r)
		}
	}
	return out
}
