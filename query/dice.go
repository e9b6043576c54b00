package query

import "strings"

// DiceCoefficient scores query against candidate using the Sorensen-Dice
// bigram overlap coefficient: twice the number of shared (lower-cased)
// two-character runs, divided by the total bigram count of both strings.
// It's the default Scorer; callers wanting a different similarity metric
// inject their own.
func DiceCoefficient(query, candidate string) float64 {
	a, b := bigrams(query), bigrams(candidate)
	if len(a) == 0 && len(b) == 0 {
		if strings.EqualFold(query, candidate) {
			return 1
		}
		return 0
	}

	var overlap, total int
	for bg, na := range a {
		total += na
		if nb, ok := b[bg]; ok {
			if na < nb {
				overlap += na
			} else {
				overlap += nb
			}
		}
	}
	for _, nb := range b {
		total += nb
	}
	if total == 0 {
		return 0
	}
	return 2 * float64(overlap) / float64(total)
}

func bigrams(s string) map[string]int {
	s = strings.ToLower(s)
	if len(s) < 2 {
		return nil
	}
	m := make(map[string]int, len(s))
	for i := 0; i < len(s)-1; i++ {
		m[s[i:i+2]]++
	}
	return m
}
