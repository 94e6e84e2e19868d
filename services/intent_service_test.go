package services

import "testing"

func TestClassifyIntent(t *testing.T) {
	cases := []struct {
		text string
		want Intent
	}{
		{"午餐吃了滷肉飯", IntentRecord},
		{"breakfast: eggs and toast", IntentRecord},
		{"晚餐可以吃什麼", IntentSuggestion},
		{"recommend me a dinner", IntentSuggestion},
		{"請問蛋白質一天要吃多少", IntentConsultation},
		{"is it ok to skip breakfast", IntentConsultation},
		{"這樣吃會胖嗎", IntentConsultation},
		{"喝咖啡好嗎？", IntentConsultation}, // trailing question mark
		{"黑咖啡", IntentRecord},
	}
	for _, c := range cases {
		if got := ClassifyIntent(c.text); got != c.want {
			t.Fatalf("ClassifyIntent(%q) = %q, want %q", c.text, got, c.want)
		}
	}
}

func TestClassifyIntentRuleOrder(t *testing.T) {
	// Suggestion keywords win even when consultation words are present.
	if got := ClassifyIntent("請問晚餐推薦吃什麼？"); got != IntentSuggestion {
		t.Fatalf("suggestion keywords must take precedence, got %q", got)
	}
}
