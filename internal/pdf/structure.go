/**
 * Legal document structure derivation
 *
 * Best-effort detection of headings and numbered rules in OCR'd legal text.
 * Rule bodies are found by scanning rule headers and slicing the text
 * between consecutive headers, which keeps the matching linear.
 */

package pdf

import (
	"regexp"
	"sort"
	"strings"
)

// Section is a heading found in the document, ordered by text offset.
type Section struct {
	Title    string `json:"title"`
	StartPos int    `json:"start_pos"`
	Type     string `json:"type"`
}

// Rule is a numbered rule with its body. Content is capped for display;
// FullContent keeps everything.
type Rule struct {
	Number      string `json:"number"`
	Title       string `json:"title"`
	Content     string `json:"content"`
	FullContent string `json:"full_content"`
}

const ruleDisplayLimit = 500

var sectionPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?im)(Rule\s+\d+[.\s]*[^\n]+)`),
	regexp.MustCompile(`(?im)(Chapter\s+\d+[.\s]*[^\n]+)`),
	regexp.MustCompile(`(?im)(Section\s+\d+[.\s]*[^\n]+)`),
	regexp.MustCompile(`(?im)(\d+\.\s+[A-Z][^\n]+)`),
}

var ruleHeader = regexp.MustCompile(`(?im)Rule\s+(\d+)[.\s]*([^\n]+)\n`)

// DeriveStructure extracts headings and numbered rules from document text.
func DeriveStructure(text string) ([]Section, []Rule) {
	return deriveSections(text), deriveRules(text)
}

func deriveSections(text string) []Section {
	var sections []Section
	for _, re := range sectionPatterns {
		for _, m := range re.FindAllStringSubmatchIndex(text, -1) {
			title := text[m[2]:m[3]]
			kind := "section"
			if strings.Contains(title, "Rule") {
				kind = "rule"
			}
			sections = append(sections, Section{
				Title:    strings.TrimSpace(title),
				StartPos: m[0],
				Type:     kind,
			})
		}
	}
	sort.SliceStable(sections, func(i, j int) bool {
		return sections[i].StartPos < sections[j].StartPos
	})
	return sections
}

// deriveRules slices rule bodies between consecutive rule headers. The last
// rule runs to the end of the document.
func deriveRules(text string) []Rule {
	headers := ruleHeader.FindAllStringSubmatchIndex(text, -1)

	rules := make([]Rule, 0, len(headers))
	for i, m := range headers {
		end := len(text)
		if i+1 < len(headers) {
			end = headers[i+1][0]
		}

		content := strings.TrimSpace(text[m[1]:end])
		rules = append(rules, Rule{
			Number:      text[m[2]:m[3]],
			Title:       strings.TrimSpace(text[m[4]:m[5]]),
			Content:     truncateForDisplay(content),
			FullContent: content,
		})
	}
	return rules
}

func truncateForDisplay(s string) string {
	runes := []rune(s)
	if len(runes) <= ruleDisplayLimit {
		return s
	}
	return string(runes[:ruleDisplayLimit]) + "..."
}
