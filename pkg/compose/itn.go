package compose

import (
	"regexp"
	"strconv"
	"strings"
)

// ITN applies a best-effort inverse text normalization pass, converting
// spelled-out small numbers to digits (e.g. "twenty three" -> "23"). This is
// a deliberately small stdlib-only substitute for the original's wetext
// (Python-only, no Go port available in the retrieval pack); see DESIGN.md.
// Failures never propagate: a pass that can't normalize a span leaves it
// untouched, matching the non-fatal ITN contract.
func ITN(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}

	result := text
	for _, re := range numberWordPatterns {
		result = re.pattern.ReplaceAllStringFunc(result, func(match string) string {
			n, ok := wordsToNumber(match)
			if !ok {
				return match
			}
			return strconv.Itoa(n)
		})
	}
	return result
}

var onesWords = map[string]int{
	"zero": 0, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5, "six": 6,
	"seven": 7, "eight": 8, "nine": 9, "ten": 10, "eleven": 11, "twelve": 12,
	"thirteen": 13, "fourteen": 14, "fifteen": 15, "sixteen": 16,
	"seventeen": 17, "eighteen": 18, "nineteen": 19,
}

var tensWords = map[string]int{
	"twenty": 20, "thirty": 30, "forty": 40, "fifty": 50,
	"sixty": 60, "seventy": 70, "eighty": 80, "ninety": 90,
}

type numberWordPattern struct {
	pattern *regexp.Regexp
}

var numberWordPatterns = []numberWordPattern{
	{regexp.MustCompile(`(?i)\b(twenty|thirty|forty|fifty|sixty|seventy|eighty|ninety)(?:[\s-](one|two|three|four|five|six|seven|eight|nine))?\b`)},
	{regexp.MustCompile(`(?i)\b(zero|one|two|three|four|five|six|seven|eight|nine|ten|eleven|twelve|thirteen|fourteen|fifteen|sixteen|seventeen|eighteen|nineteen)\b`)},
}

func wordsToNumber(phrase string) (int, bool) {
	words := strings.FieldsFunc(strings.ToLower(phrase), func(r rune) bool {
		return r == ' ' || r == '-'
	})

	switch len(words) {
	case 1:
		if v, ok := onesWords[words[0]]; ok {
			return v, true
		}
		if v, ok := tensWords[words[0]]; ok {
			return v, true
		}
	case 2:
		tens, ok := tensWords[words[0]]
		if !ok {
			return 0, false
		}
		ones, ok := onesWords[words[1]]
		if !ok {
			return 0, false
		}
		return tens + ones, true
	}
	return 0, false
}
