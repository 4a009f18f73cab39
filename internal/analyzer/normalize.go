package analyzer

import (
	"regexp"
	"strings"
)

var (
	pageMarkerRe = regexp.MustCompile(`(?mi)^[ \t]*(?:page[ \t]+\d+(?:[ \t]+of[ \t]+\d+)?|-+[ \t]*page[ \t]+break[ \t]*-+|\d+[ \t]*/[ \t]*\d+)[ \t]*$`)
	spaceRunRe   = regexp.MustCompile(`[ \t]+`)
	blankRunRe   = regexp.MustCompile(`\n{3,}`)
)

// Normalize cleans raw extracted resume text: page-break artifacts and page-number
// lines are dropped, whitespace runs collapse to single separators, and consecutive
// blank lines are capped at one so paragraph structure survives.
func Normalize(raw string) string {
	if raw == "" {
		return ""
	}

	text := strings.ReplaceAll(raw, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\f", "\n")
	text = pageMarkerRe.ReplaceAllString(text, "")
	text = spaceRunRe.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	text = strings.Join(lines, "\n")

	text = blankRunRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
