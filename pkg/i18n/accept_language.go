package i18n

import (
	"strings"

	"golang.org/x/text/language"
)

// maxAcceptLanguageLength prevents DoS attacks through oversized Accept-Language headers.
const maxAcceptLanguageLength = 4096

// wildcard is what x/text reports for the "*" entry.
var wildcard = language.MustParse("mul")

// ParseAcceptLanguage parses an Accept-Language header into language tags
// ordered by quality, most preferred first. Entries that fail to parse and
// the wildcard are skipped. An empty or fully malformed header yields nil.
//
// Example header: "en-US,en;q=0.9,pl;q=0.8"
// Returns: [en-US en pl]
func ParseAcceptLanguage(header string) []language.Tag {
	if len(header) > maxAcceptLanguageLength {
		header = header[:maxAcceptLanguageLength]
	}
	if strings.TrimSpace(header) == "" {
		return nil
	}

	tags, _, err := language.ParseAcceptLanguage(header)
	if err == nil {
		return dropUndetermined(tags)
	}

	// Fall back to entry-by-entry parsing so one bad entry does not
	// discard the rest.
	var out []language.Tag
	for part := range strings.SplitSeq(header, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		parsed, _, perr := language.ParseAcceptLanguage(part)
		if perr != nil {
			continue
		}
		out = append(out, parsed...)
	}
	return dropUndetermined(out)
}

// FormatAcceptLanguage renders tags as an Accept-Language value in the
// given order, without quality values.
//
// Example: [de fr en] -> "de, fr, en"
func FormatAcceptLanguage(tags []language.Tag) string {
	parts := make([]string, 0, len(tags))
	for _, t := range tags {
		parts = append(parts, t.String())
	}
	return strings.Join(parts, ", ")
}

// Match returns the best of available for the given Accept-Language header.
// If nothing matches, the first available tag is returned.
func Match(header string, available ...language.Tag) language.Tag {
	if len(available) == 0 {
		return language.Und
	}
	requested := ParseAcceptLanguage(header)
	if len(requested) == 0 {
		return available[0]
	}

	_, idx, conf := language.NewMatcher(available).Match(requested...)
	if conf == language.No {
		return available[0]
	}
	return available[idx]
}

func dropUndetermined(tags []language.Tag) []language.Tag {
	out := tags[:0]
	for _, t := range tags {
		if t != language.Und && t != wildcard {
			out = append(out, t)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
