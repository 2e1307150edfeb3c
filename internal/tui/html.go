package tui

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"golang.org/x/net/html"
)

// StripHTML removes HTML tags from a product description and converts it
// to plain text. The tokenizer also decodes entities.
func StripHTML(s string) string {
	if s == "" {
		return ""
	}

	var result strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return cleanupWhitespace(result.String())

		case html.TextToken:
			result.Write(tokenizer.Text())

		case html.StartTagToken, html.SelfClosingTagToken, html.EndTagToken:
			tn, _ := tokenizer.TagName()
			if isBlockTag(string(tn)) {
				result.WriteString("\n")
			}
		}
	}
}

func isBlockTag(name string) bool {
	switch name {
	case "p", "div", "br", "li", "ul", "ol", "tr", "h1", "h2", "h3", "h4", "h5", "h6":
		return true
	}
	return false
}

// cleanupWhitespace collapses runs of whitespace, including non-breaking
// spaces, and drops empty lines.
func cleanupWhitespace(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if fields := strings.Fields(line); len(fields) > 0 {
			lines = append(lines, strings.Join(fields, " "))
		}
	}
	return strings.Join(lines, "\n")
}

// oneLine flattens a description for a table cell.
func oneLine(s string) string {
	return strings.ReplaceAll(StripHTML(s), "\n", " · ")
}

// truncate cuts s to width terminal cells.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}
