package internal

import (
	"fmt"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// Default character encodings.
const (
	DefaultRequestCharset  = "ISO-8859-1"
	DefaultResponseCharset = "UTF-8"
)

// bodyMode tracks which accessor opened a body.
// A body is opened through exactly one accessor kind per instance.
type bodyMode uint8

const (
	bodyUnopened bodyMode = iota
	bodyBytes
	bodyText
)

func (m bodyMode) String() string {
	switch m {
	case bodyBytes:
		return "byte stream"
	case bodyText:
		return "text"
	default:
		return "unopened"
	}
}

// lookupEncoding resolves an IANA charset name.
// An empty name resolves to fallback.
func lookupEncoding(name, fallback string) (encoding.Encoding, error) {
	if name == "" {
		name = fallback
	}
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "UTF-8", "UTF8":
		return unicode.UTF8, nil
	case "ISO-8859-1", "ISO8859-1", "LATIN1":
		return charmap.ISO8859_1, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrUnsupportedCharset, name, err)
	}
	// ianaindex returns nil for names it knows but cannot decode.
	if enc == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedCharset, name)
	}
	return enc, nil
}

// charsetParam extracts the charset parameter from a Content-Type value.
func charsetParam(contentType string) (string, bool) {
	idx := strings.Index(strings.ToLower(contentType), "charset=")
	if idx < 0 {
		return "", false
	}
	enc := strings.TrimSpace(contentType[idx+len("charset="):])
	if semi := strings.IndexByte(enc, ';'); semi > 0 {
		enc = enc[:semi]
	}
	return strings.Trim(strings.TrimSpace(enc), `"`), true
}

// withCharset appends a charset parameter to a Content-Type value that lacks one.
func withCharset(contentType, charset string) (string, bool) {
	if contentType == "" || charset == "" {
		return contentType, false
	}
	if _, ok := charsetParam(contentType); ok {
		return contentType, false
	}
	return contentType + ";charset=" + charset, true
}
