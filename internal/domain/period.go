package domain

import "time"

// PeriodKind classifies the time expression found in a question.
type PeriodKind int

const (
	PeriodDay PeriodKind = iota + 1
	PeriodToday
	PeriodYesterday
	PeriodDayBeforeYesterday
	PeriodThisWeek
	PeriodLastWeek
	PeriodMonth
	PeriodThisMonthToDate
	PeriodLastMonth
	PeriodTwoMonthsAgo
)

// String returns the wire name used in logs and in the data bundle.
func (k PeriodKind) String() string {
	switch k {
	case PeriodDay:
		return "day"
	case PeriodToday:
		return "today"
	case PeriodYesterday:
		return "yesterday"
	case PeriodDayBeforeYesterday:
		return "day_before_yesterday"
	case PeriodThisWeek:
		return "this_week"
	case PeriodLastWeek:
		return "last_week"
	case PeriodMonth:
		return "month"
	case PeriodThisMonthToDate:
		return "this_month_to_date"
	case PeriodLastMonth:
		return "last_month"
	case PeriodTwoMonthsAgo:
		return "two_months_ago"
	}
	return "unknown"
}

// Period is a concrete, inclusive interval in the business timezone.
//
// Start is always midnight. End is the last instant of its day, except for
// PeriodThisMonthToDate where End is the moment the question was asked.
type Period struct {
	Kind  PeriodKind
	Start time.Time
	End   time.Time
	Label string
}

// StartDate returns Start as YYYY-MM-DD.
func (p Period) StartDate() string { return p.Start.Format(time.DateOnly) }

// EndDate returns End as YYYY-MM-DD.
func (p Period) EndDate() string { return p.End.Format(time.DateOnly) }

// ContainsDate reports whether a YYYY-MM-DD date falls inside the period.
// Comparison is date-only; time of day is ignored.
func (p Period) ContainsDate(date string) bool {
	return date >= p.StartDate() && date <= p.EndDate()
}

// Phrase renders the period as it reads at the end of a pt-BR sentence,
// e.g. "ontem", "na semana passada", "em outubro de 2026".
func (p Period) Phrase() string {
	switch p.Kind {
	case PeriodToday, PeriodYesterday, PeriodDayBeforeYesterday, PeriodThisWeek:
		return p.Label
	case PeriodLastWeek:
		return "na " + p.Label
	case PeriodThisMonthToDate:
		return p.Label + " (até agora)"
	case PeriodDay, PeriodMonth, PeriodLastMonth, PeriodTwoMonthsAgo:
		return "em " + p.Label
	}
	return p.Label
}

// PeriodInfo is the serialized form of a Period inside a DataBundle.
type PeriodInfo struct {
	Kind     string `json:"kind"`
	StartISO string `json:"start_iso"`
	EndISO   string `json:"end_iso"`
	Label    string `json:"label"`
}

// Info converts the period for serialization.
func (p Period) Info() PeriodInfo {
	return PeriodInfo{
		Kind:     p.Kind.String(),
		StartISO: p.Start.Format(time.RFC3339),
		EndISO:   p.End.Format(time.RFC3339),
		Label:    p.Label,
	}
}
