package sheets

import (
	"context"
	"sort"

	"github.com/Veraticus/the-listings-must-flow/internal/model"
)

// RecordWriter writes a full set of records to a report destination.
type RecordWriter interface {
	Write(ctx context.Context, records []model.Record) error
}

// CountRow is one line of a breakdown table.
type CountRow struct {
	Label string
	Count int
}

// Summary aggregates records for the report header.
type Summary struct {
	ByPropertyType []CountRow
	ByRegion       []CountRow
	ByCategory     []CountRow
	ByPurpose      []CountRow
	Total          int
	Enriched       int
}

// Summarize counts records per classification value. Rows are sorted by
// count, largest first, then by label.
func Summarize(records []model.Record) Summary {
	types := map[string]int{}
	regions := map[string]int{}
	categories := map[string]int{}
	purposes := map[string]int{}

	s := Summary{Total: len(records)}
	for i := range records {
		r := &records[i]
		types[string(r.PropertyType)]++
		regions[r.Region]++
		categories[string(r.Category)]++
		purposes[string(r.Purpose)]++
		if r.Enriched {
			s.Enriched++
		}
	}

	s.ByPropertyType = sortedCounts(types)
	s.ByRegion = sortedCounts(regions)
	s.ByCategory = sortedCounts(categories)
	s.ByPurpose = sortedCounts(purposes)
	return s
}

func sortedCounts(m map[string]int) []CountRow {
	rows := make([]CountRow, 0, len(m))
	for label, n := range m {
		rows = append(rows, CountRow{Label: label, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Label < rows[j].Label
	})
	return rows
}
