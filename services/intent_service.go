package services

import "strings"

// Intent is the coarse routing decision for one inbound message.
type Intent string

const (
	IntentSuggestion   Intent = "suggestion"
	IntentConsultation Intent = "consultation"
	IntentRecord       Intent = "record"
)

var suggestionKeywords = []string{
	"建議", "推薦", "吃什麼", "怎麼吃", "菜單",
	"suggest", "recommend", "what should i eat", "meal idea",
}

var consultationKeywords = []string{
	"營養", "健康", "諮詢", "請問", "為什麼", "熱量是", "會胖嗎", "可以吃嗎",
	"nutrition", "healthy", "is it ok", "why", "how much",
}

// ClassifyIntent routes free text into suggestion, consultation or record.
// Rule order is fixed: suggestion keywords, consultation keywords, a
// trailing question mark, then record as the default. Deterministic, total.
func ClassifyIntent(text string) Intent {
	lower := strings.ToLower(strings.TrimSpace(text))

	for _, kw := range suggestionKeywords {
		if strings.Contains(lower, kw) {
			return IntentSuggestion
		}
	}
	for _, kw := range consultationKeywords {
		if strings.Contains(lower, kw) {
			return IntentConsultation
		}
	}
	if strings.Contains(lower, "?") || strings.Contains(lower, "？") {
		return IntentConsultation
	}
	return IntentRecord
}
