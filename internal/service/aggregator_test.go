package service_test

import (
	"testing"

	"github.com/grupodv/dv-assistant-go/internal/domain"
	"github.com/grupodv/dv-assistant-go/internal/service"

	"github.com/stretchr/testify/assert"
)

func deliveryRows() []domain.ReportRow {
	return []domain.ReportRow{
		{"data": "2026-10-15T10:00:00", "empresa": "MERCATTO DELÍCIA", "plataforma": "iFood", "bruto": "1.000,00"},
		{"data": "2026-10-15", "empresa": "mercatto delícia", "plataforma": "Delivery Much", "bruto": 234.56},
		{"data": "2026-10-15", "empresa": "VILLA GOURMET", "plataforma": "IFOOD", "bruto": "50,00"},
		{"data": "2026-10-14", "empresa": "MERCATTO DELÍCIA", "plataforma": "iFood", "bruto": "999,99"},
		{"data": "2026-10-15", "empresa": "MERCATTO DELÍCIA", "plataforma": "iFood", "bruto": "n/d"},
		{"empresa": "MERCATTO DELÍCIA", "bruto": "77,00"},
	}
}

func TestAggregate(t *testing.T) {
	yesterday := service.DetectPeriod("ontem", fixedNow)

	tests := []struct {
		name   string
		filter service.Filter
		want   float64
	}{
		{"period only", service.Filter{Period: yesterday, ValueField: "bruto"}, 1284.56},
		{"company", service.Filter{Period: yesterday, Company: "MERCATTO DELÍCIA", ValueField: "bruto"}, 1234.56},
		{"company and ifood", service.Filter{Period: yesterday, Company: "MERCATTO DELÍCIA", Platform: domain.PlatformIFood, ValueField: "bruto"}, 1000},
		{"much", service.Filter{Period: yesterday, Platform: domain.PlatformDeliveryMuch, ValueField: "bruto"}, 234.56},
		{"undated accepted", service.Filter{Period: yesterday, Company: "MERCATTO DELÍCIA", ValueField: "bruto", AcceptUndated: true}, 1311.56},
		{"missing field", service.Filter{Period: yesterday, ValueField: "liquido"}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, service.Aggregate(deliveryRows(), tt.filter), 0.001)
		})
	}
}

func TestAggregate_Empty(t *testing.T) {
	assert.Zero(t, service.Aggregate(nil, service.Filter{ValueField: "bruto"}))
}

func TestAggregate_IdempotentAndPure(t *testing.T) {
	rows := deliveryRows()
	f := service.Filter{Period: service.DetectPeriod("ontem", fixedNow), Company: "MERCATTO DELÍCIA", ValueField: "bruto"}

	first := service.Aggregate(rows, f)
	second := service.Aggregate(rows, f)
	assert.Equal(t, first, second)
	assert.Equal(t, deliveryRows(), rows, "rows must not be mutated")
}

func TestCompanies(t *testing.T) {
	got := service.Companies(deliveryRows(), []domain.ReportRow{{"Empresa": "PADARIA DELÍCIA"}, {"x": 1}})
	assert.Equal(t, []string{"MERCATTO DELÍCIA", "mercatto delícia", "VILLA GOURMET", "PADARIA DELÍCIA"}, got)
}
