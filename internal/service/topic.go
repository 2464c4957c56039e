package service

import (
	"regexp"
	"strings"

	"github.com/grupodv/dv-assistant-go/internal/domain"
)

var (
	reNeedsData = regexp.MustCompile(`(?i)(mercatto|mercato|villa|padaria|delicia|delícia|kids|meta|fatur|vend|receita|cancelament|reserva|couvert|financeir|compar|percent|por cento|%|delivery|ifood|i food|much|ontem|hoje|m[eê]s|semana)`)

	reDateQuestion = regexp.MustCompile(`(^|[^\p{L}])(que dia e|que dia é|data de hoje|que dia)([^\p{L}]|$)`)

	reDelivery = regexp.MustCompile(`(?i)delivery|ifood|i\s*food|much`)

	// Metrics that a sales total must never answer.
	reOtherMetric = regexp.MustCompile(`(?i)cancelament|reserva|couvert|avalia|concilia|\bmeta\b|atingi|compar|percent|por cento|%|trava|ticket`)
)

// NeedsData reports whether the question is about business figures and
// therefore worth fetching reports for.
func NeedsData(question string) bool {
	return reNeedsData.MatchString(question)
}

// IsDateQuestion reports whether the question asks for today's date.
func IsDateQuestion(question string) bool {
	return reDateQuestion.MatchString(strings.ToLower(strings.TrimSpace(question)))
}

// WantsDelivery reports whether the question mentions delivery or a
// delivery platform.
func WantsDelivery(question string) bool {
	return reDelivery.MatchString(question)
}

// IsSalesQuestion reports whether a sales total is an acceptable answer.
// Questions naming another metric (cancellations, reservations, goal
// progress, comparisons) are left to the LLM with the full bundle.
func IsSalesQuestion(question string) bool {
	return !reOtherMetric.MatchString(question)
}

// DetectPlatform returns the delivery platform named in the question.
func DetectPlatform(question string) domain.Platform {
	q := strings.ToLower(question)
	switch {
	case strings.Contains(q, "ifood") || strings.Contains(q, "i food"):
		return domain.PlatformIFood
	case strings.Contains(q, "much"):
		return domain.PlatformDeliveryMuch
	}
	return domain.PlatformNone
}
