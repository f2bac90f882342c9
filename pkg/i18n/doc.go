// Package i18n handles Accept-Language negotiation for synthetic requests.
//
// ParseAcceptLanguage turns a header into an ordered locale stack,
// FormatAcceptLanguage renders a stack back into a header value, and Match
// picks the best supported language:
//
//	tags := i18n.ParseAcceptLanguage("fr;q=0.5, de")  // [de fr]
//	i18n.FormatAcceptLanguage(tags)                    // "de, fr"
//	i18n.Match("pl,en;q=0.8", language.English, language.German) // en
//
// Tags are golang.org/x/text/language values.
package i18n
