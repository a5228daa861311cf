package core

import "strings"

// SymptomClassifier decides whether a chat message reports a symptom.
type SymptomClassifier interface {
	IsSymptomReport(message string) bool
}

// DefaultSymptomKeywords are matched as case-insensitive substrings.
var DefaultSymptomKeywords = []string{"feel", "symptom", "pain", "ache", "dizzy", "nausea", "tired", "headache", "sick", "hurt"}

// KeywordClassifier flags any message containing one of its keywords. It has
// no notion of negation or word boundaries, so "I feel great" and
// "no pain at all" are both reported as symptoms.
type KeywordClassifier struct {
	keywords []string
}

func NewKeywordClassifier(keywords ...string) *KeywordClassifier {
	if len(keywords) == 0 {
		keywords = DefaultSymptomKeywords
	}
	lowered := make([]string, len(keywords))
	for i, k := range keywords {
		lowered[i] = strings.ToLower(k)
	}
	return &KeywordClassifier{keywords: lowered}
}

func (c *KeywordClassifier) IsSymptomReport(message string) bool {
	lower := strings.ToLower(message)
	for _, k := range c.keywords {
		if strings.Contains(lower, k) {
			return true
		}
	}
	return false
}
