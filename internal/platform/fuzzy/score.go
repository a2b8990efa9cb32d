// Package fuzzy scores how alike two person or club names are on a 0..100 scale.
package fuzzy

import (
	"math"
	"slices"
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Process folds a name into the comparable form: diacritics stripped,
// lower case, punctuation turned into spaces, single spaced.
func Process(s string) string {
	folded, _, err := transform.String(transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC), s)
	if err != nil {
		folded = s
	}
	folded = strings.Map(func(r rune) rune {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return unicode.ToLower(r)
		}
		return ' '
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// WRatio processes both names and returns the weighted similarity score.
func WRatio(a, b string) int {
	return WRatioProcessed(Process(a), Process(b))
}

// WRatioProcessed scores two already processed names. It takes the best of
// plain, token-sorted and token-set similarity; when one name is much longer
// than the other, partial (substring window) variants are used with a penalty.
func WRatioProcessed(a, b string) int {
	if a == "" || b == "" {
		return 0
	}

	la, lb := runeLen(a), runeLen(b)
	best := ratio(a, b)
	lenRatio := float64(max(la, lb)) / float64(min(la, lb))

	if lenRatio < 1.5 {
		best = math.Max(best, tokenSortRatio(a, b, false)*0.95)
		best = math.Max(best, tokenSetRatio(a, b, false)*0.95)
		return int(math.Round(best))
	}

	scale := 0.9
	if lenRatio > 8 {
		scale = 0.6
	}
	best = math.Max(best, partialRatio(a, b)*scale)
	best = math.Max(best, tokenSortRatio(a, b, true)*0.95*scale)
	best = math.Max(best, tokenSetRatio(a, b, true)*0.95*scale)
	return int(math.Round(best))
}

// ratio is the normalized edit-distance similarity.
func ratio(a, b string) float64 {
	longest := max(runeLen(a), runeLen(b))
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(dist)/float64(longest))
}

// partialRatio slides the shorter name over the longer one and keeps the best window.
func partialRatio(a, b string) float64 {
	short, long := []rune(a), []rune(b)
	if len(short) > len(long) {
		short, long = long, short
	}
	if len(short) == 0 {
		return 0
	}
	if len(short) == len(long) {
		return ratio(a, b)
	}

	shortStr := string(short)
	best := 0.0
	for i := 0; i+len(short) <= len(long); i++ {
		score := ratio(shortStr, string(long[i:i+len(short)]))
		if score > best {
			best = score
			if best == 100 {
				break
			}
		}
	}
	return best
}

func tokenSortRatio(a, b string, partial bool) float64 {
	sa, sb := sortedTokens(a), sortedTokens(b)
	if partial {
		return partialRatio(sa, sb)
	}
	return ratio(sa, sb)
}

// tokenSetRatio compares the shared tokens against each side's full token set,
// so a name that is a token subset of the other scores 100.
func tokenSetRatio(a, b string, partial bool) float64 {
	ta, tb := tokenSet(a), tokenSet(b)

	var inter, onlyA, onlyB []string
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			inter = append(inter, tok)
		} else {
			onlyA = append(onlyA, tok)
		}
	}
	for tok := range tb {
		if _, ok := ta[tok]; !ok {
			onlyB = append(onlyB, tok)
		}
	}
	if len(inter) > 0 && (len(onlyA) == 0 || len(onlyB) == 0) {
		return 100
	}

	slices.Sort(inter)
	slices.Sort(onlyA)
	slices.Sort(onlyB)
	sect := strings.Join(inter, " ")
	combinedA := strings.TrimSpace(sect + " " + strings.Join(onlyA, " "))
	combinedB := strings.TrimSpace(sect + " " + strings.Join(onlyB, " "))

	score := ratio
	if partial {
		score = partialRatio
	}
	best := score(combinedA, combinedB)
	if sect != "" {
		best = math.Max(best, score(sect, combinedA))
		best = math.Max(best, score(sect, combinedB))
	}
	return best
}

func sortedTokens(s string) string {
	tokens := strings.Fields(s)
	slices.Sort(tokens)
	return strings.Join(tokens, " ")
}

func tokenSet(s string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, tok := range strings.Fields(s) {
		out[tok] = struct{}{}
	}
	return out
}

func runeLen(s string) int {
	return len([]rune(s))
}
