package model

import (
	"sort"
	"time"
)

// DayGroup aggregates the intake entries of one local calendar day.
type DayGroup struct {
	Date       string        `json:"date"`
	Entries    []IntakeEntry `json:"entries"`
	Total      int           `json:"total_amount"`
	Percentage int           `json:"percentage"`
}

// GroupByDay buckets entries by their local date in loc.
// Groups are ordered newest first; entries inside a group are chronological,
// with ties broken by ID so the result does not depend on input order.
// Percentage is computed against goal.
func GroupByDay(entries []IntakeEntry, loc *time.Location, goal int) []DayGroup {
	index := make(map[string]int)
	groups := make([]DayGroup, 0)

	for _, e := range entries {
		day := DayKey(e.Timestamp, loc)
		i, ok := index[day]
		if !ok {
			i = len(groups)
			index[day] = i
			groups = append(groups, DayGroup{Date: day})
		}
		groups[i].Entries = append(groups[i].Entries, e)
		groups[i].Total += e.Amount
	}

	for i := range groups {
		day := groups[i].Entries
		sort.Slice(day, func(a, b int) bool {
			if !day[a].Timestamp.Equal(day[b].Timestamp) {
				return day[a].Timestamp.Before(day[b].Timestamp)
			}
			return day[a].ID < day[b].ID
		})
		groups[i].Percentage = ProgressPercentage(groups[i].Total, goal)
	}

	sort.Slice(groups, func(a, b int) bool {
		return groups[a].Date > groups[b].Date
	})

	return groups
}

// Flatten returns every entry of groups in group order.
func Flatten(groups []DayGroup) []IntakeEntry {
	n := 0
	for _, g := range groups {
		n += len(g.Entries)
	}
	out := make([]IntakeEntry, 0, n)
	for _, g := range groups {
		out = append(out, g.Entries...)
	}
	return out
}
