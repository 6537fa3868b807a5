package search

import "strings"

// ruleClassifier is the rule-based Intent Classifier. It matches
// case-insensitively against a fixed, ordered set of substrings; the
// first rule to match wins.
type ruleClassifier struct{}

// NewClassifier returns the rule-based intent classifier. It never errs
// and needs no external state or dynamic configuration.
func NewClassifier() Classifier {
	return &ruleClassifier{}
}

var _ Classifier = (*ruleClassifier)(nil)

type intentRule struct {
	intent   Intent
	contains []string
}

// intentRules is ordered: Definition, Procedure, Summary, Example. The
// first matching rule wins; anything else falls through to General.
var intentRules = []intentRule{
	{IntentDefinition, []string{"what is", "define", "definition of", "meaning of", "theorem", "lemma"}},
	{IntentProcedure, []string{"how to", "steps to", "procedure for", "process of"}},
	{IntentSummary, []string{"summary", "overview", "explain chapter", "summarize"}},
	{IntentExample, []string{"example", "illustration", "case study", "walkthrough"}},
}

// Classify maps query to an Intent. Unmatched queries are IntentGeneral.
func (c *ruleClassifier) Classify(query string) Intent {
	lower := strings.ToLower(query)
	for _, rule := range intentRules {
		for _, needle := range rule.contains {
			if strings.Contains(lower, needle) {
				return rule.intent
			}
		}
	}
	return IntentGeneral
}
