package uiutil

import (
	"strings"
	"time"
)

const FriendlyDateLayout = "2006-01-02"

const FriendlyDateTimeLayout = "Jan 2, 2006 3:04 PM"

// FormatFriendlyDate returns the calendar date shown under post titles.
func FormatFriendlyDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateLayout)
}

// FormatFriendlyDateTime returns a consistent, user-friendly local timestamp representation.
func FormatFriendlyDateTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format(FriendlyDateTimeLayout)
}

// Paragraphs splits post text on blank lines, dropping empty chunks.
// Single newlines stay inside a paragraph.
func Paragraphs(text string) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	chunks := strings.Split(text, "\n\n")
	out := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}
