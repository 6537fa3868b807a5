package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuleClassifier_Classify(t *testing.T) {
	c := NewClassifier()

	cases := []struct {
		query  string
		intent Intent
	}{
		{"What is a cache?", IntentDefinition},
		{"Define recursion", IntentDefinition},
		{"What is the meaning of life?", IntentDefinition},
		{"State the theorem of Pythagoras", IntentDefinition},
		{"How to configure the cache", IntentProcedure},
		{"Steps to reproduce the bug", IntentProcedure},
		{"Give me a summary of chapter 3", IntentSummary},
		{"Explain chapter 3 overview", IntentSummary},
		{"Show me an example of a cache", IntentExample},
		{"Walk me through a case study", IntentExample},
		{"Tell me about caches", IntentGeneral},
	}

	for _, tc := range cases {
		assert.Equalf(t, tc.intent, c.Classify(tc.query), "query=%q", tc.query)
	}
}

func TestRuleClassifier_FirstMatchWins(t *testing.T) {
	c := NewClassifier()
	// "example" would match Example, but "what is" (Definition) is declared
	// first and must win when both substrings are present.
	assert.Equal(t, IntentDefinition, c.Classify("what is an example of a cache?"))
}

func TestRuleClassifier_CaseInsensitive(t *testing.T) {
	c := NewClassifier()
	assert.Equal(t, IntentDefinition, c.Classify("WHAT IS A CACHE?"))
}
