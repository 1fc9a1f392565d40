package services

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

const maxPromptChars = 8000

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	jsonObjectRe = regexp.MustCompile(`(?s)\{.*\}`)
)

// plainText strips markup from rich-text fields and truncates them for prompts.
func plainText(s string) string {
	if strings.Contains(s, "<") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(s)); err == nil {
			doc.Find("script,style").Remove()
			s = doc.Text()
		}
	}
	s = strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	if utf8.RuneCountInString(s) > maxPromptChars {
		s = string([]rune(s)[:maxPromptChars])
	}
	return s
}

// extractJSON pulls the outermost {...} block out of a model answer, which may be
// wrapped in prose or markdown fences.
func extractJSON(raw string) (string, bool) {
	m := jsonObjectRe.FindString(raw)
	return m, m != ""
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none listed"
	}
	return strings.Join(items, ", ")
}
