// Package guardrails decides whether a free-text question is in scope and,
// if so, which intent answers it.
//
// Matching is a case-insensitive substring test against a fixed phrase
// table. Intents are tried in declaration order and the first match wins,
// so a question hitting phrases of two intents resolves to the one
// declared first ("win rate by lead source" is a win_rate question).
package guardrails

import (
	"strings"

	"salesintel/models"
)

type intentPhrases struct {
	intent  models.Intent
	phrases []string
}

var intentTable = []intentPhrases{
	{models.IntentWinRate, []string{"win rate", "conversion", "close rate"}},
	{models.IntentRisk, []string{
		"risk",
		"high risk",
		"exposure",
		"likely to be lost",
		"most likely to be lost",
		"probability of loss",
	}},
	{models.IntentStalled, []string{
		"stall",
		"stalled",
		"stalling",
		"delay",
		"slow",
		"sales cycle",
		"cycle length",
		"increasing cycle",
	}},
	{models.IntentACV, []string{"acv", "deal value", "contract value", "amount"}},
	{models.IntentLeadSource, []string{"lead source", "source performance"}},
	{models.IntentPipelineHealth, []string{
		"pipeline health",
		"overall performance",
		"revenue outcomes",
		"improve revenue",
		"revenue improvement",
		"actions improve revenue",
	}},
}

var suggestions = []string{
	"How is ACV performing?",
	"Are deals stalling?",
	"Analyze pipeline health",
	"Where is risk concentrated?",
	"What is our win rate by lead source?",
}

// DetectIntent classifies query. It returns models.IntentNone when no
// phrase matches; callers must treat that as out of scope.
func DetectIntent(query string) models.Intent {
	q := strings.ToLower(query)
	for _, entry := range intentTable {
		for _, phrase := range entry.phrases {
			if strings.Contains(q, phrase) {
				return entry.intent
			}
		}
	}
	return models.IntentNone
}

// Intents lists the supported intents in match order.
func Intents() []models.Intent {
	out := make([]models.Intent, len(intentTable))
	for i, entry := range intentTable {
		out[i] = entry.intent
	}
	return out
}

// Phrases returns a copy of the trigger phrases for intent.
func Phrases(intent models.Intent) []string {
	for _, entry := range intentTable {
		if entry.intent == intent {
			return append([]string(nil), entry.phrases...)
		}
	}
	return nil
}

// IsSupported reports whether intent is one of the answerable intents.
func IsSupported(intent models.Intent) bool {
	return Phrases(intent) != nil
}

// Suggestions returns example questions that are known to be in scope.
func Suggestions() []string {
	return append([]string(nil), suggestions...)
}
