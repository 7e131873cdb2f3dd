// Package tokens provides a heuristic token estimator used for budgeting and
// for deciding when history should be compacted. The estimate is deliberately
// rough (1 token per ~4 characters) — good enough for metering, not billing,
// and distinct from any provider's own tokenization.
package tokens

import "unicode/utf8"

const charsPerToken = 4

// Estimate maps text to an approximate token count. Non-empty text always
// costs at least one token.
func Estimate(text string) int {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return 0
	}
	est := (n + charsPerToken - 1) / charsPerToken
	if est < 1 {
		est = 1
	}
	return est
}

// EstimateAll sums Estimate over a set of texts.
func EstimateAll(texts ...string) int {
	total := 0
	for _, t := range texts {
		total += Estimate(t)
	}
	return total
}
