// Package textnorm repairs systematic OCR misrecognitions in text extracted
// from low-quality scans of financial documents. Certain letters are
// consistently confused with digits and certain domain phrases are
// consistently garbled; both are corrected by an ordered substitution table
// followed by whitespace and delimiter cleanup passes.
package textnorm

import (
	"regexp"
	"strings"
)

var (
	reDigitSpaceDigit  = regexp.MustCompile(`(\d)\s+(\d)`)
	reDigitSpacePunct  = regexp.MustCompile(`(\d)\s+([.,:;])`)
	rePunctSpaceDigit  = regexp.MustCompile(`([.,:;])\s+(\d)`)
	reLetterSpaceDigit = regexp.MustCompile(`([A-Za-z])\s+(\d)`)
	reDigitSpaceLetter = regexp.MustCompile(`(\d)\s+([A-Za-z])`)

	monthNames = `Jan(?:uary)?|Feb(?:ruary)?|Mar(?:ch)?|Apr(?:il)?|May|Jun(?:e)?|` +
		`Jul(?:y)?|Aug(?:ust)?|Sep(?:tember)?|Oct(?:ober)?|Nov(?:ember)?|Dec(?:ember)?`

	reDayMonthYear = regexp.MustCompile(`(?i)(\d{1,2})\s*(` + monthNames + `)\s*,\s*(\d{4})`)
	reMonthDayYear = regexp.MustCompile(`(?i)(` + monthNames + `)\s*(\d{1,2})\s*,\s*(\d{4})`)

	// Account-number style digit groups with stray whitespace around hyphens.
	reGroup433 = regexp.MustCompile(`(\d{4})\s*-\s*(\d{3})\s*-\s*(\d{3})`)
	reGroup344 = regexp.MustCompile(`(\d{3})\s*-\s*(\d{4})\s*-\s*(\d{4})`)
)

// Normalize corrects systematic OCR errors in raw recognized text using the
// default substitution table. It is pure, deterministic and total: it never
// fails, degraded output is acceptable.
func Normalize(raw string) string {
	return NormalizeWithRules(raw, DefaultRules())
}

// NormalizeWithRules runs the four correction passes, in fixed order, with an
// explicit rule table. Order matters: whitespace collapsing must see the
// digits produced by the substitution pass, and date re-spacing must run
// after collapsing has removed wanted spaces.
func NormalizeWithRules(raw string, rules []Rule) string {
	text := applySubstitutions(raw, rules)
	text = collapseIntraTokenWhitespace(text)
	text = respaceDatePhrases(text)
	text = normalizeDigitGroups(text)
	return text
}

// applySubstitutions runs the ordered rule table. Phrase rules are plain
// global substring replacements. Char rules are restricted to numeric-looking
// spans: maximal runs of digits and ambiguous letters that contain at least
// one digit, trimmed where they abut an ordinary word. The restriction keeps
// words containing those letters intact while still repairing digit sequences
// like "1,5OO.OO".
func applySubstitutions(text string, rules []Rule) string {
	span := numericSpanPattern(rules)
	for _, r := range rules {
		switch r.Class {
		case ClassPhrase:
			text = strings.ReplaceAll(text, r.Pattern, r.Replacement)
		case ClassChar:
			text = applyCharRule(text, span, r)
		}
	}
	return text
}

// numericSpanPattern builds the "numeric-looking span" matcher: a maximal run
// of digits, ambiguous letters and numeric punctuation that contains at least
// one digit. Separators are included so a figure like "1,5OO.OO" is treated
// as a single span.
func numericSpanPattern(rules []Rule) *regexp.Regexp {
	var letters []string
	for _, r := range rules {
		if r.Class == ClassChar && len([]rune(r.Pattern)) == 1 {
			letters = append(letters, regexp.QuoteMeta(r.Pattern))
		}
	}
	class := `0-9.,` + strings.Join(letters, "")
	return regexp.MustCompile(`[` + class + `]*[0-9][` + class + `]*`)
}

// applyCharRule substitutes the rule's letter inside each numeric span. An
// ambiguous letter at a span edge that touches a letter outside the span
// belongs to that word, not to the number (the collapse pass glues words to
// digits, as in "Withdrawal0n"), so span edges abutting letters are trimmed
// back to the first digit before substituting.
func applyCharRule(text string, span *regexp.Regexp, r Rule) string {
	var b strings.Builder
	last := 0
	for _, m := range span.FindAllStringIndex(text, -1) {
		start, end := m[0], m[1]
		if start > 0 && isASCIILetter(text[start-1]) {
			for start < end && isASCIILetter(text[start]) {
				start++
			}
		}
		if end < len(text) && isASCIILetter(text[end]) {
			for end > start && isASCIILetter(text[end-1]) {
				end--
			}
		}
		b.WriteString(text[last:start])
		b.WriteString(strings.ReplaceAll(text[start:end], r.Pattern, r.Replacement))
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func isASCIILetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

// collapseIntraTokenWhitespace removes spurious whitespace the OCR engine
// inserts inside tokens that should be contiguous: between two digits,
// between a digit and adjacent punctuation, and between a letter and an
// adjacent digit in either order. Replacement is repeated to a fixpoint
// because each pass consumes the character that the next match needs.
func collapseIntraTokenWhitespace(text string) string {
	for {
		prev := text
		text = reDigitSpaceDigit.ReplaceAllString(text, "$1$2")
		text = reDigitSpacePunct.ReplaceAllString(text, "$1$2")
		text = rePunctSpaceDigit.ReplaceAllString(text, "$1$2")
		text = reLetterSpaceDigit.ReplaceAllString(text, "$1$2")
		text = reDigitSpaceLetter.ReplaceAllString(text, "$1$2")
		if text == prev {
			return text
		}
	}
}

// respaceDatePhrases re-inserts the single spaces the collapsing pass removed
// from "day month, year" and "month day, year" phrases.
func respaceDatePhrases(text string) string {
	text = reDayMonthYear.ReplaceAllString(text, "$1 $2, $3")
	text = reMonthDayYear.ReplaceAllString(text, "$1 $2, $3")
	return text
}

// normalizeDigitGroups collapses whitespace around hyphens in the two
// recognized digit-grouping shapes (4-3-3 and 3-4-4), as used in account and
// reference numbers.
func normalizeDigitGroups(text string) string {
	text = reGroup433.ReplaceAllString(text, "$1-$2-$3")
	text = reGroup344.ReplaceAllString(text, "$1-$2-$3")
	return text
}
