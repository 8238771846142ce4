/**
 * OCR text cleanup
 *
 * Normalizes raw OCR output before pattern matching: fixes the character
 * confusions Tesseract makes on printed labels, drops junk lines and
 * collapses whitespace.
 */

package ocr

import (
	"regexp"
	"strings"
	"unicode"
)

// Misread characters fixed everywhere. Digit-context confusions are handled
// separately below so "4O0 g" heals without corrupting real words.
var charFixes = strings.NewReplacer(
	"|", "I",
	"§", "S",
	"¢", "C",
)

var (
	oBetweenDigits   = regexp.MustCompile(`(\d)[oO](\d)`)
	lBetweenDigits   = regexp.MustCompile(`(\d)[lI](\d)`)
	junkLine         = regexp.MustCompile(`^\W*$`)
	edgePunctuation  = regexp.MustCompile(`^\W+|\W+$`)
	repeatedSpaces   = regexp.MustCompile(` +`)
	repeatedNewlines = regexp.MustCompile(`\n+`)
)

// CleanText normalizes OCR output. Lines shorter than two characters or
// without any alphanumeric content are dropped, stray punctuation is trimmed
// from line edges and runs of whitespace collapse to one.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = charFixes.Replace(text)
	text = oBetweenDigits.ReplaceAllString(text, "${1}${2}")
	text = lBetweenDigits.ReplaceAllString(text, "${1}${2}")

	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if len(line) < 2 || junkLine.MatchString(line) {
			continue
		}
		line = edgePunctuation.ReplaceAllString(line, "")
		if len(line) > 1 && hasAlnum(line) {
			cleaned = append(cleaned, line)
		}
	}

	out := strings.Join(cleaned, "\n")
	out = repeatedSpaces.ReplaceAllString(out, " ")
	out = repeatedNewlines.ReplaceAllString(out, "\n")
	return strings.TrimSpace(out)
}

func hasAlnum(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
