package extractor

import "regexp"

// AmountMatcher reports the first amount of one style in text, with
// thousands separators removed.
type AmountMatcher func(text string) (string, bool)

const number = `(\d+(?:,\d+)*(?:\.\d+)?)`

var (
	rupeeSymbol = regexp.MustCompile(`₹\s*` + number)
	rupeePrefix = regexp.MustCompile(`(?i)(?:\brs\.?|\brupees?)\s*` + number)
	rupeeSuffix = regexp.MustCompile(`(?i)` + number + `\s*(?:rupees?\b|rs\b|रुपये|रुपए)`)
)

// AmountMatchers are tried in order; the first hit wins.
var AmountMatchers = []AmountMatcher{
	RupeeSymbol,
	RupeePrefix,
	RupeeSuffix,
}

// RupeeSymbol matches "₹50,000".
func RupeeSymbol(text string) (string, bool) { return firstGroup(rupeeSymbol, text) }

// RupeePrefix matches "Rs 500", "Rs.500" and "rupees 500".
func RupeePrefix(text string) (string, bool) { return firstGroup(rupeePrefix, text) }

// RupeeSuffix matches "500 rupees", "500rs" and "500 रुपये".
func RupeeSuffix(text string) (string, bool) { return firstGroup(rupeeSuffix, text) }

func firstGroup(re *regexp.Regexp, text string) (string, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return normalizeAmount(m[1]), true
}
