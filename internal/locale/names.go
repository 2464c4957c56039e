package locale

import (
	"fmt"
	"time"
)

var monthNames = [...]string{
	"janeiro", "fevereiro", "março", "abril", "maio", "junho",
	"julho", "agosto", "setembro", "outubro", "novembro", "dezembro",
}

var weekdayNames = [...]string{
	"domingo", "segunda-feira", "terça-feira", "quarta-feira",
	"quinta-feira", "sexta-feira", "sábado",
}

// MonthName returns the pt-BR month name in lower case.
func MonthName(m time.Month) string { return monthNames[m-1] }

// WeekdayName returns the pt-BR weekday name in lower case.
func WeekdayName(d time.Weekday) string { return weekdayNames[d] }

// MonthYear renders "outubro de 2026".
func MonthYear(t time.Time) string {
	return fmt.Sprintf("%s de %d", MonthName(t.Month()), t.Year())
}

// ShortDate renders "16/10/2026".
func ShortDate(t time.Time) string { return t.Format("02/01/2006") }

// LongDate renders "sexta-feira, 16 de outubro de 2026".
func LongDate(t time.Time) string {
	return fmt.Sprintf("%s, %d de %s de %d",
		WeekdayName(t.Weekday()), t.Day(), MonthName(t.Month()), t.Year())
}
