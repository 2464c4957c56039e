package service_test

import (
	"testing"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/locale"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"github.com/stretchr/testify/assert"
)

var (
	bahia = locale.BusinessZone(-3 * time.Hour)
	// Friday, 16 October 2026, 15:30 local.
	fixedNow = time.Date(2026, 10, 16, 15, 30, 0, 0, bahia)
)

func date(y int, m time.Month, d int) string {
	return time.Date(y, m, d, 0, 0, 0, 0, bahia).Format(time.DateOnly)
}

func TestDetectPeriod(t *testing.T) {
	tests := []struct {
		name     string
		question string
		kind     domain.PeriodKind
		start    string
		end      string
		label    string
	}{
		{"explicit day", "quanto vendi em 05/10/2026?", domain.PeriodDay, date(2026, 10, 5), date(2026, 10, 5), "05/10/2026"},
		{"explicit day with dashes", "vendas 5-3-2026", domain.PeriodDay, date(2026, 3, 5), date(2026, 3, 5), "05/03/2026"},
		{"explicit day beats ontem", "ontem ou 01/09/2026?", domain.PeriodDay, date(2026, 9, 1), date(2026, 9, 1), "01/09/2026"},
		{"explicit month", "faturamento 09/2026", domain.PeriodMonth, date(2026, 9, 1), date(2026, 9, 30), "setembro de 2026"},
		{"hoje", "Quanto vendi HOJE?", domain.PeriodToday, date(2026, 10, 16), date(2026, 10, 16), "hoje"},
		{"ontem", "quanto vendi no mercatto ontem", domain.PeriodYesterday, date(2026, 10, 15), date(2026, 10, 15), "ontem"},
		{"anteontem", "e anteontem?", domain.PeriodDayBeforeYesterday, date(2026, 10, 14), date(2026, 10, 14), "anteontem"},
		{"mes passado", "vendas do mes passado", domain.PeriodLastMonth, date(2026, 9, 1), date(2026, 9, 30), "setembro de 2026"},
		{"mês passado", "vendas do mês passado", domain.PeriodLastMonth, date(2026, 9, 1), date(2026, 9, 30), "setembro de 2026"},
		{"mês retrasado", "e o mês retrasado?", domain.PeriodTwoMonthsAgo, date(2026, 8, 1), date(2026, 8, 31), "agosto de 2026"},
		{"mês atual", "quanto vendi no mês atual", domain.PeriodThisMonthToDate, date(2026, 10, 1), date(2026, 10, 16), "neste mês"},
		{"este mês", "quanto vendi este mês?", domain.PeriodThisMonthToDate, date(2026, 10, 1), date(2026, 10, 16), "neste mês"},
		{"esta semana", "vendas desta semana, esta semana", domain.PeriodThisWeek, date(2026, 10, 12), date(2026, 10, 18), "esta semana"},
		{"semana passada", "semana passada no villa", domain.PeriodLastWeek, date(2026, 10, 5), date(2026, 10, 11), "semana passada"},
		{"default month", "quanto vendi no villa", domain.PeriodMonth, date(2026, 10, 1), date(2026, 10, 31), "outubro de 2026"},
		{"invalid day falls through", "vendas 31/02/2026 ontem", domain.PeriodYesterday, date(2026, 10, 15), date(2026, 10, 15), "ontem"},
		{"invalid month falls through", "vendas 13/2026", domain.PeriodMonth, date(2026, 10, 1), date(2026, 10, 31), "outubro de 2026"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := service.DetectPeriod(tt.question, fixedNow)
			assert.Equal(t, tt.kind, p.Kind)
			assert.Equal(t, tt.start, p.StartDate())
			assert.Equal(t, tt.end, p.EndDate())
			assert.Equal(t, tt.label, p.Label)
			assert.False(t, p.End.Before(p.Start))
		})
	}
}

func TestDetectPeriod_YesterdayIgnoresOtherWords(t *testing.T) {
	for _, q := range []string{"ontem", "quanto o villa gourmet vendeu ontem no ifood", "ONTEM!!"} {
		p := service.DetectPeriod(q, fixedNow)
		assert.Equal(t, domain.PeriodYesterday, p.Kind, q)
		assert.Equal(t, p.StartDate(), p.EndDate(), q)
		assert.Equal(t, date(2026, 10, 15), p.StartDate(), q)
	}
}

func TestDetectPeriod_Bounds(t *testing.T) {
	p := service.DetectPeriod("ontem", fixedNow)
	assert.Equal(t, 0, p.Start.Hour())
	assert.Equal(t, 23, p.End.Hour())
	assert.Equal(t, 59, p.End.Second())
	assert.Equal(t, bahia, p.Start.Location())

	mtd := service.DetectPeriod("mês atual", fixedNow)
	assert.True(t, mtd.End.Equal(fixedNow), "month to date ends now")
}

func TestDetectPeriod_DiacriticAsymmetry(t *testing.T) {
	// Upper-case accented input is lowered before matching.
	p := service.DetectPeriod("MÊS PASSADO", fixedNow)
	assert.Equal(t, domain.PeriodLastMonth, p.Kind)
}

func TestPeriodPhrase(t *testing.T) {
	assert.Equal(t, "ontem", service.DetectPeriod("ontem", fixedNow).Phrase())
	assert.Equal(t, "na semana passada", service.DetectPeriod("semana passada", fixedNow).Phrase())
	assert.Equal(t, "em outubro de 2026", service.DetectPeriod("vendas", fixedNow).Phrase())
	assert.Equal(t, "em 05/10/2026", service.DetectPeriod("05/10/2026", fixedNow).Phrase())
}
