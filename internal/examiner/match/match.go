// Package match scores how similar two examiner names are.
package match

import (
	"math"
	"unicode/utf8"

	"github.com/hbollon/go-edlib"
)

// Perfect is the score of two identical strings.
const Perfect = 100

// Ratio returns 100 * 2 * LCS(a, b) / (len(a) + len(b)) rounded half to
// even, where LCS is the longest common subsequence and lengths are counted
// in runes. Equal strings, including two empty ones, score 100. The
// comparison is case-sensitive and does not normalise whitespace.
func Ratio(a, b string) int {
	if a == b {
		return Perfect
	}
	total := utf8.RuneCountInString(a) + utf8.RuneCountInString(b)
	if total == 0 {
		return Perfect
	}
	common := edlib.LCS(a, b)
	return int(math.RoundToEven(float64(Perfect*2*common) / float64(total)))
}

// AtLeast reports whether a and b score at least threshold.
func AtLeast(a, b string, threshold int) bool {
	return Ratio(a, b) >= threshold
}
