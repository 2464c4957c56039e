package locale_test

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/grupodv/dv-assistant-go/internal/locale"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBRL(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want float64
	}{
		{"thousands and decimals", "1.234,56", 1234.56},
		{"currency prefix", "R$ 1.234,56", 1234.56},
		{"non-breaking space", "R$\u00a01.234,56", 1234.56},
		{"millions", "2.000.000,00", 2000000},
		{"no decimals", "350", 350},
		{"negative", "-10,50", -10.5},
		{"raw float", 99.9, 99.9},
		{"raw int", 7, 7},
		{"json number", json.Number("12.5"), 12.5},
		{"empty", "", 0},
		{"garbage", "n/a", 0},
		{"nil", nil, 0},
		{"bool", true, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, locale.ParseBRL(tc.in), 1e-9)
		})
	}
}

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "1.234,56", locale.FormatBRL(1234.56))
	assert.Equal(t, "0,00", locale.FormatBRL(0))
	assert.Equal(t, "999,90", locale.FormatBRL(999.9))
	assert.Equal(t, "1.000.000,00", locale.FormatBRL(1e6))
	assert.Equal(t, "-12.345,68", locale.FormatBRL(-12345.678))
	assert.Equal(t, "0,00", locale.FormatBRL(-0.001))
	assert.Equal(t, "0,00", locale.FormatBRL(-0.004))
	assert.Equal(t, "98.765.432,10", locale.FormatBRL(98765432.1))
	assert.Equal(t, "-0,01", locale.FormatBRL(-0.006))
}

func TestFormatParseRoundTrip(t *testing.T) {
	for _, cents := range []int64{0, 1, 99, 100, 123456, 100000000, 98765432101} {
		v := float64(cents) / 100
		got := locale.ParseBRL(locale.FormatBRL(v))
		assert.Equal(t, math.Round(v*100), math.Round(got*100), "value %v", v)
	}
}

func TestFold(t *testing.T) {
	assert.Equal(t, "MERCATTO DELICIA", locale.Fold("Mercatto Delícia"))
	assert.Equal(t, "QUANTO VENDI NO MES PASSADO?", locale.Fold("quanto vendi no mês passado?"))
	assert.Equal(t, "ACAO", locale.Fold("ação"))
}

func TestBusinessZone(t *testing.T) {
	loc := locale.BusinessZone(-3 * time.Hour)
	_, offset := time.Date(2026, 1, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, -3*3600, offset)
	assert.Equal(t, "UTC-03:00", loc.String())

	_, julyOffset := time.Date(2026, 7, 1, 0, 0, 0, 0, loc).Zone()
	assert.Equal(t, offset, julyOffset)
}

func TestWeekBounds(t *testing.T) {
	loc := locale.BusinessZone(-3 * time.Hour)
	// Friday 16 Oct 2026.
	start, end := locale.WeekBounds(time.Date(2026, 10, 16, 15, 4, 0, 0, loc))
	assert.Equal(t, time.Date(2026, 10, 12, 0, 0, 0, 0, loc), start)
	assert.Equal(t, time.Monday, start.Weekday())
	assert.Equal(t, "2026-10-18", end.Format(time.DateOnly))
	assert.Equal(t, 23, end.Hour())

	// A Sunday belongs to the week that started the previous Monday.
	start, _ = locale.WeekBounds(time.Date(2026, 10, 18, 10, 0, 0, 0, loc))
	assert.Equal(t, "2026-10-12", start.Format(time.DateOnly))
}

func TestMonthBounds(t *testing.T) {
	loc := locale.BusinessZone(-3 * time.Hour)
	start, end := locale.MonthBounds(time.Date(2024, 2, 10, 0, 0, 0, 0, loc))
	assert.Equal(t, "2024-02-01", start.Format(time.DateOnly))
	assert.Equal(t, "2024-02-29", end.Format(time.DateOnly))
	require.True(t, start.Before(end))
	assert.Equal(t, 29, locale.DaysIn(2024, time.February))
	assert.Equal(t, 28, locale.DaysIn(2026, time.February))
}

func TestMonthsAgo(t *testing.T) {
	loc := locale.BusinessZone(-3 * time.Hour)
	ref := time.Date(2026, 3, 31, 12, 0, 0, 0, loc)
	assert.Equal(t, "2026-02-01", locale.MonthsAgo(ref, 1).Format(time.DateOnly))
	assert.Equal(t, "2026-01-01", locale.MonthsAgo(ref, 2).Format(time.DateOnly))
	assert.Equal(t, "2025-12-01", locale.MonthsAgo(ref, 3).Format(time.DateOnly))
}

func TestNames(t *testing.T) {
	d := time.Date(2026, 10, 16, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "outubro de 2026", locale.MonthYear(d))
	assert.Equal(t, "16/10/2026", locale.ShortDate(d))
	assert.Equal(t, "sexta-feira, 16 de outubro de 2026", locale.LongDate(d))
}
