// Package locale holds the pt-BR helpers shared by the resolver: BRL money
// parsing and formatting, business-timezone calendar math and text folding.
package locale

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// ParseBRL converts an upstream monetary value to float64.
//
// Strings use Brazilian notation: "." groups thousands and "," is the
// decimal separator ("1.234,56" -> 1234.56). An optional "R$" prefix and
// surrounding spaces are ignored. Numbers pass through. Anything that cannot
// be parsed contributes 0.
func ParseBRL(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return t
	case float32:
		return float64(t)
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return 0
		}
		return f
	case string:
		return parseBRLString(t)
	}
	return 0
}

func parseBRLString(s string) float64 {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "R$")
	s = strings.NewReplacer(" ", "", "\u00a0", "").Replace(s)
	if s == "" {
		return 0
	}
	s = strings.ReplaceAll(s, ".", "")
	s = strings.Replace(s, ",", ".", 1)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

// FormatBRL renders v with two decimals and Brazilian grouping:
// 1234.56 -> "1.234,56". ParseBRL(FormatBRL(v)) equals v rounded to cents.
// Values that round to zero print unsigned.
func FormatBRL(v float64) string {
	v = math.Round(v*100) / 100
	if v == 0 {
		v = 0 // drops the sign of -0
	}
	return message.NewPrinter(language.BrazilianPortuguese).Sprintf("%.2f", v)
}
