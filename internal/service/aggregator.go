package service

import (
	"strings"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/locale"
)

// Filter selects the rows that count toward a total.
type Filter struct {
	Period   domain.Period
	Company  string
	Platform domain.Platform
	// ValueField names the monetary column ("bruto", "Realizado").
	ValueField string
	// AcceptUndated lets rows missing a date or company through. Used for
	// reports that were already filtered server-side.
	AcceptUndated bool
}

// Aggregate sums f.ValueField over the rows matching f. Unparsable values
// count as 0 and an empty selection yields 0. rows is not modified.
func Aggregate(rows []domain.ReportRow, f Filter) float64 {
	var total float64
	for _, row := range rows {
		if !f.matches(row) {
			continue
		}
		v, _ := row.Field(f.ValueField)
		total += locale.ParseBRL(v)
	}
	return total
}

func (f Filter) matches(row domain.ReportRow) bool {
	if d := row.Date(); d == "" {
		if !f.AcceptUndated {
			return false
		}
	} else if !f.Period.ContainsDate(d) {
		return false
	}

	if f.Company != "" {
		c := row.Company()
		switch {
		case c == "" && !f.AcceptUndated:
			return false
		case c != "" && !strings.EqualFold(c, f.Company):
			return false
		}
	}

	if f.Platform != domain.PlatformNone && !f.Platform.Matches(row.Platform()) {
		return false
	}
	return true
}

// Companies lists the distinct company names found in rows.
func Companies(rows ...[]domain.ReportRow) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, set := range rows {
		for _, r := range set {
			c := r.Company()
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
