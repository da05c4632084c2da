package analyses

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	thinkPattern   = regexp.MustCompile(`(?is)<think>.*?</think>`)
	labelPattern   = regexp.MustCompile(`(?i)\bmatch(?:ing)?[ \t]*score\b`)
	bracketPattern = regexp.MustCompile(`\([^()\n]*\)|\[[^\[\]\n]*\]`)
	// valuePattern matches the start of what follows a label once scale text and
	// markdown are removed: an optional separator, then the score and its unit.
	valuePattern   = regexp.MustCompile(`(?i)^[ \t]*(?:(?::|=|-|–|\bis\b)[ \t]*)?(?:(?:about|approximately|around|roughly)[ \t]+|~[ \t]*)?(\d{1,3}(?:\.\d+)?)[ \t]*(%|/[ \t]*100\b|/[ \t]*10\b|out of 100\b|out of 10\b)?`)
	percentPattern = regexp.MustCompile(`(\d{1,3}(?:\.\d+)?)[ \t]*%`)
)

// ParseMatchScore finds the match score the model reported in its analysis.
// Reasoning blocks are ignored. It returns nil when the text carries no
// recognizable score.
func ParseMatchScore(text string) *int {
	text = thinkPattern.ReplaceAllString(text, "")

	for _, loc := range labelPattern.FindAllStringIndex(text, -1) {
		rest := text[loc[1]:]
		if i := strings.IndexByte(rest, '\n'); i >= 0 {
			rest = rest[:i]
		}
		if m := valuePattern.FindStringSubmatch(cleanScoreText(rest)); m != nil {
			if score, ok := scoreValue(m[1], m[2]); ok {
				return &score
			}
		}
	}

	for _, line := range strings.Split(text, "\n") {
		lower := strings.ToLower(line)
		if !strings.Contains(lower, "match") && !strings.Contains(lower, "score") {
			continue
		}
		if m := percentPattern.FindStringSubmatch(cleanScoreText(line)); m != nil {
			if score, ok := scoreValue(m[1], "%"); ok {
				return &score
			}
		}
	}
	return nil
}

// cleanScoreText drops bracketed scale hints such as "(out of 100)" and markdown emphasis.
func cleanScoreText(s string) string {
	s = bracketPattern.ReplaceAllString(s, "")
	return strings.NewReplacer("*", "", "_", "", "`", "").Replace(s)
}

func scoreValue(raw, unit string) (int, bool) {
	val, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, false
	}
	unit = strings.ToLower(strings.Join(strings.Fields(unit), " "))
	if unit == "/10" || unit == "/ 10" || unit == "out of 10" {
		val *= 10
	}
	val = math.Round(val)
	if val < 0 {
		val = 0
	}
	if val > 100 {
		val = 100
	}
	return int(val), true
}
