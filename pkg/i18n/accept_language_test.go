package i18n_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/relay/pkg/i18n"
)

func TestParseAcceptLanguage(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		header   string
		expected []language.Tag
	}{
		{
			name:     "empty header",
			header:   "",
			expected: nil,
		},
		{
			name:     "single language",
			header:   "pl",
			expected: []language.Tag{language.Polish},
		},
		{
			name:     "ordered by quality",
			header:   "de;q=0.5,pl;q=0.9,en;q=0.8",
			expected: []language.Tag{language.Polish, language.English, language.German},
		},
		{
			name:     "region kept",
			header:   "en-US,en;q=0.9",
			expected: []language.Tag{language.AmericanEnglish, language.English},
		},
		{
			name:     "wildcard skipped",
			header:   "fr, *;q=0.1",
			expected: []language.Tag{language.French},
		},
		{
			name:     "malformed entry skipped",
			header:   "de, !!!, fr;q=0.5",
			expected: []language.Tag{language.German, language.French},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, i18n.ParseAcceptLanguage(tt.header))
		})
	}
}

func TestParseAcceptLanguage_Oversized(t *testing.T) {
	t.Parallel()

	header := "en," + strings.Repeat("x", 5000)
	tags := i18n.ParseAcceptLanguage(header)
	require.Equal(t, []language.Tag{language.English}, tags)
}

func TestFormatAcceptLanguage(t *testing.T) {
	t.Parallel()

	require.Equal(t, "de, fr, en",
		i18n.FormatAcceptLanguage([]language.Tag{language.German, language.French, language.English}))
	require.Empty(t, i18n.FormatAcceptLanguage(nil))
}

func TestMatch(t *testing.T) {
	t.Parallel()

	available := []language.Tag{language.English, language.German}

	require.Equal(t, language.German, i18n.Match("de-AT,en;q=0.5", available...))
	require.Equal(t, language.English, i18n.Match("pl,en;q=0.8", available...))
	require.Equal(t, language.English, i18n.Match("", available...))
	require.Equal(t, language.English, i18n.Match("ja", available...))
	require.Equal(t, language.Und, i18n.Match("en"))
}
