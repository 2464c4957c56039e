package service

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/locale"
)

var (
	reDayDate   = regexp.MustCompile(`\b(\d{1,2})[/-](\d{1,2})[/-](\d{4})\b`)
	reMonthDate = regexp.MustCompile(`\b(\d{1,2})[/-](\d{4})\b`)

	reToday           = regexp.MustCompile(`\bhoje\b`)
	reYesterday       = regexp.MustCompile(`\bontem\b`)
	reDayBeforeYest   = regexp.MustCompile(`\banteontem\b`)
	reLastMonth       = regexp.MustCompile(`m[eê]s passado`)
	reTwoMonthsAgo    = regexp.MustCompile(`m[eê]s retrasado`)
	reThisMonthToDate = regexp.MustCompile(`m[eê]s (atual|corrente|presente)\b|\b(este|esse) m[eê]s([^\p{L}]|$)`)
	reThisWeek        = regexp.MustCompile(`essa semana|esta semana|semana atual`)
	reLastWeek        = regexp.MustCompile(`semana passada`)
)

// DetectPeriod maps the time expression in question to a concrete interval
// relative to now. Rules are tried in order and the first match wins; with
// no match the current calendar month is used. now must already be in the
// business timezone.
func DetectPeriod(question string, now time.Time) domain.Period {
	q := strings.ToLower(question)

	if p, ok := explicitDay(q, now.Location()); ok {
		return p
	}
	if p, ok := explicitMonth(q, now.Location()); ok {
		return p
	}

	switch {
	case reToday.MatchString(q):
		return dayPeriod(domain.PeriodToday, now, "hoje")
	case reYesterday.MatchString(q):
		return dayPeriod(domain.PeriodYesterday, locale.AddDays(now, -1), "ontem")
	case reDayBeforeYest.MatchString(q):
		return dayPeriod(domain.PeriodDayBeforeYesterday, locale.AddDays(now, -2), "anteontem")
	case reLastMonth.MatchString(q):
		return monthPeriod(domain.PeriodLastMonth, locale.MonthsAgo(now, 1))
	case reTwoMonthsAgo.MatchString(q):
		return monthPeriod(domain.PeriodTwoMonthsAgo, locale.MonthsAgo(now, 2))
	case reThisMonthToDate.MatchString(q):
		start, _ := locale.MonthBounds(now)
		return domain.Period{Kind: domain.PeriodThisMonthToDate, Start: start, End: now, Label: "neste mês"}
	case reThisWeek.MatchString(q):
		start, end := locale.WeekBounds(now)
		return domain.Period{Kind: domain.PeriodThisWeek, Start: start, End: end, Label: "esta semana"}
	case reLastWeek.MatchString(q):
		start, end := locale.WeekBounds(locale.AddDays(now, -7))
		return domain.Period{Kind: domain.PeriodLastWeek, Start: start, End: end, Label: "semana passada"}
	}

	return monthPeriod(domain.PeriodMonth, now)
}

func dayPeriod(kind domain.PeriodKind, day time.Time, label string) domain.Period {
	return domain.Period{Kind: kind, Start: locale.StartOfDay(day), End: locale.EndOfDay(day), Label: label}
}

func monthPeriod(kind domain.PeriodKind, ref time.Time) domain.Period {
	start, end := locale.MonthBounds(ref)
	return domain.Period{Kind: kind, Start: start, End: end, Label: locale.MonthYear(start)}
}

// explicitDay matches DD/MM/YYYY. Impossible dates (31/02) are skipped.
func explicitDay(q string, loc *time.Location) (domain.Period, bool) {
	for _, m := range reDayDate.FindAllStringSubmatch(q, -1) {
		d, _ := strconv.Atoi(m[1])
		mo, _ := strconv.Atoi(m[2])
		y, _ := strconv.Atoi(m[3])
		if mo < 1 || mo > 12 || d < 1 || d > locale.DaysIn(y, time.Month(mo)) {
			continue
		}
		day := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, loc)
		return dayPeriod(domain.PeriodDay, day, locale.ShortDate(day)), true
	}
	return domain.Period{}, false
}

// explicitMonth matches MM/YYYY that is not the tail of a DD/MM/YYYY date.
func explicitMonth(q string, loc *time.Location) (domain.Period, bool) {
	for _, idx := range reMonthDate.FindAllStringSubmatchIndex(q, -1) {
		if tailOfDayDate(q, idx[0]) {
			continue
		}
		mo, _ := strconv.Atoi(q[idx[2]:idx[3]])
		y, _ := strconv.Atoi(q[idx[4]:idx[5]])
		if mo < 1 || mo > 12 {
			continue
		}
		return monthPeriod(domain.PeriodMonth, time.Date(y, time.Month(mo), 1, 0, 0, 0, 0, loc)), true
	}
	return domain.Period{}, false
}

func tailOfDayDate(q string, at int) bool {
	if at < 2 {
		return false
	}
	sep := q[at-1]
	return (sep == '/' || sep == '-') && q[at-2] >= '0' && q[at-2] <= '9'
}
