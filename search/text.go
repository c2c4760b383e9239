package search

import (
	"regexp"
	"strings"
)

// Patterns for web artifacts commonly left in scraped corpus text.
var (
	htmlTagPattern    = regexp.MustCompile(`<[^>]+>`)
	htmlEntityPattern = regexp.MustCompile(`&\w+;`)
	urlPattern        = regexp.MustCompile(`https?://\S+`)
	wwwPattern        = regexp.MustCompile(`www\.\S+`)
	emailPattern      = regexp.MustCompile(`\b[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}\b`)
	sharePattern      = regexp.MustCompile(`(?i)\bShare:\s*`)
	multiSpacePattern = regexp.MustCompile(` {2,}`)
	multiBreakPattern = regexp.MustCompile(`\n{3,}`)
)

// CleanText strips web artifacts from corpus text before display.
//
// Scraped documents carry HTML tags, entities, share links, URLs and email
// addresses that add noise to presented hits. This touches only the display
// copy of a hit; the stored document and its content hash are untouched.
func CleanText(text string) string {
	if text == "" {
		return ""
	}

	text = htmlTagPattern.ReplaceAllString(text, "")
	text = htmlEntityPattern.ReplaceAllString(text, "")
	text = sharePattern.ReplaceAllString(text, "")
	text = urlPattern.ReplaceAllString(text, "")
	text = wwwPattern.ReplaceAllString(text, "")
	text = emailPattern.ReplaceAllString(text, "")

	text = multiBreakPattern.ReplaceAllString(text, "\n\n")
	text = multiSpacePattern.ReplaceAllString(text, " ")

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}
