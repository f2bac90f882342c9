package internal

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/dmitrymomot/relay/pkg/header"
)

// DefaultBufferSize is the buffer size hint a new response reports.
const DefaultBufferSize = 8192

// Response is an in-memory HTTP response filled by the router during a
// single dispatch. The body is buffered; nothing is sent anywhere.
//
// A response starts open and becomes committed on SendError, SendRedirect
// or FlushBuffer. There is no way back. Status and header writes stay legal
// after commit; buffer resets and further error or redirect sends do not.
// It is owned by one exchange and is not safe for concurrent use.
type Response struct {
	headers header.Store
	body    bytes.Buffer
	stream  *BodyStream
	writer  *BodyWriter
	locale  language.Tag

	errorMessage      string
	contentType       string
	characterEncoding string

	contentLength int64
	status        int
	bufferSize    int
	mode          bodyMode
	committed     bool
}

// NewResponse creates an open response with status 200 and UTF-8 encoding.
func NewResponse() *Response {
	return &Response{
		status:            http.StatusOK,
		characterEncoding: DefaultResponseCharset,
		bufferSize:        DefaultBufferSize,
		contentLength:     -1,
		locale:            language.English,
	}
}

// Status returns the current status code.
func (w *Response) Status() int {
	return w.status
}

// SetStatus sets the status code. Codes are not validated.
func (w *Response) SetStatus(code int) {
	w.status = code
}

// ErrorMessage returns the message recorded by SendErrorMessage.
func (w *Response) ErrorMessage() string {
	return w.errorMessage
}

// SendError is SendErrorMessage without a message.
func (w *Response) SendError(code int) error {
	return w.SendErrorMessage(code, "")
}

// SendErrorMessage sets status and message, clears the body and commits.
// Fails with ErrCommitted when the response is already committed.
func (w *Response) SendErrorMessage(code int, message string) error {
	if w.committed {
		return ErrCommitted
	}
	w.status = code
	w.errorMessage = message
	w.clearBody()
	w.committed = true
	return nil
}

// SendRedirect sets status 302 and the Location header, clears the body
// and commits. Fails with ErrCommitted when the response is already committed.
func (w *Response) SendRedirect(location string) error {
	if w.committed {
		return ErrCommitted
	}
	w.status = http.StatusFound
	w.headers.Set("Location", location)
	w.clearBody()
	w.committed = true
	return nil
}

// Header returns the first value of name, or an empty string.
func (w *Response) Header(name string) string {
	return w.headers.Value(name)
}

// Headers returns every value of name in insertion order.
func (w *Response) Headers(name string) []string {
	return w.headers.Values(name)
}

// HeaderNames returns header names in first-registration order.
func (w *Response) HeaderNames() []string {
	return w.headers.Names()
}

// ContainsHeader reports whether name has at least one value.
func (w *Response) ContainsHeader(name string) bool {
	return w.headers.Has(name)
}

// SetHeader replaces all values of name. Content-Type updates the content
// type and, when the value carries a charset, the character encoding.
// A numeric Content-Length becomes the explicit content length.
func (w *Response) SetHeader(name, value string) {
	w.headers.Set(name, value)

	switch {
	case strings.EqualFold(name, "Content-Type"):
		w.contentType = value
		if enc, ok := charsetParam(value); ok {
			w.characterEncoding = enc
		}
	case strings.EqualFold(name, "Content-Length"):
		if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			w.contentLength = n
		}
	}
}

// AddHeader appends a value to name. The first Content-Type added becomes
// the content type.
func (w *Response) AddHeader(name, value string) {
	w.headers.Add(name, value)
	if strings.EqualFold(name, "Content-Type") && w.contentType == "" {
		w.contentType = value
	}
}

func (w *Response) SetIntHeader(name string, value int) {
	w.SetHeader(name, strconv.Itoa(value))
}

func (w *Response) AddIntHeader(name string, value int) {
	w.AddHeader(name, strconv.Itoa(value))
}

// SetDateHeader sets name to an RFC 1123 GMT date built from epoch milliseconds.
func (w *Response) SetDateHeader(name string, epochMillis int64) {
	w.SetHeader(name, formatHTTPDate(epochMillis))
}

// AddDateHeader appends an RFC 1123 GMT date built from epoch milliseconds.
func (w *Response) AddDateHeader(name string, epochMillis int64) {
	w.AddHeader(name, formatHTTPDate(epochMillis))
}

func formatHTTPDate(epochMillis int64) string {
	return time.UnixMilli(epochMillis).UTC().Format(http.TimeFormat)
}

// AddCookie appends a Set-Cookie header for c. Invalid cookies are dropped.
func (w *Response) AddCookie(c *http.Cookie) {
	if c == nil {
		return
	}
	if v := c.String(); v != "" {
		w.AddHeader("Set-Cookie", v)
	}
}

func (w *Response) ContentType() string {
	return w.contentType
}

// SetContentType sets the Content-Type header.
func (w *Response) SetContentType(contentType string) {
	w.SetHeader("Content-Type", contentType)
}

func (w *Response) CharacterEncoding() string {
	return w.characterEncoding
}

// SetCharacterEncoding sets the body encoding. When the content type has
// no charset parameter one is appended.
func (w *Response) SetCharacterEncoding(charset string) {
	w.characterEncoding = charset
	if ct, changed := withCharset(w.contentType, charset); changed {
		w.SetHeader("Content-Type", ct)
	}
}

// SetContentLength sets the Content-Length header and the explicit length.
// The explicit length is never recomputed from the buffered body.
func (w *Response) SetContentLength(n int64) {
	w.headers.Set("Content-Length", strconv.FormatInt(n, 10))
	w.contentLength = n
}

// ContentLength returns the explicit content length, or -1 when unset.
func (w *Response) ContentLength() int64 {
	return w.contentLength
}

// SetBufferSize records a buffer size hint. Ignored after commit.
func (w *Response) SetBufferSize(n int) {
	if w.committed {
		return
	}
	w.bufferSize = n
}

func (w *Response) BufferSize() int {
	return w.bufferSize
}

// SetLocale sets the response locale and the Content-Language header.
func (w *Response) SetLocale(tag language.Tag) {
	w.locale = tag
	w.SetHeader("Content-Language", tag.String())
}

func (w *Response) Locale() language.Tag {
	return w.locale
}

// EncodeURL returns url unchanged: session identifiers never travel in URLs.
func (w *Response) EncodeURL(url string) string {
	return url
}

// OutputStream opens the body for byte writes. Repeated calls return the
// same stream. Fails with ErrIllegalState when Writer was called first.
func (w *Response) OutputStream() (*BodyStream, error) {
	if w.mode == bodyText {
		return nil, fmt.Errorf("%w: body already opened as %s", ErrIllegalState, w.mode)
	}
	if w.stream == nil {
		w.stream = &BodyStream{buf: &w.body}
		w.mode = bodyBytes
	}
	return w.stream, nil
}

// Writer opens the body for text writes encoded with the character encoding
// (UTF-8 when unset). Repeated calls return the same writer.
// Fails with ErrIllegalState when OutputStream was called first.
func (w *Response) Writer() (*BodyWriter, error) {
	if w.mode == bodyBytes {
		return nil, fmt.Errorf("%w: body already opened as %s", ErrIllegalState, w.mode)
	}
	if w.writer != nil {
		return w.writer, nil
	}

	enc, err := lookupEncoding(w.characterEncoding, DefaultResponseCharset)
	if err != nil {
		return nil, err
	}
	w.writer = &BodyWriter{buf: &w.body}
	if enc != unicode.UTF8 {
		// Unrepresentable characters become the charset's substitute byte.
		w.writer.enc = encoding.ReplaceUnsupported(enc.NewEncoder())
	}
	w.mode = bodyText
	return w.writer, nil
}

// FlushBuffer encodes any text still held by the writer and commits the response.
func (w *Response) FlushBuffer() error {
	w.committed = true
	return w.flushWriter()
}

// flushWriter encodes a trailing partial character held by the text writer.
func (w *Response) flushWriter() error {
	if w.writer == nil {
		return nil
	}
	return w.writer.Flush()
}

// clearBody empties the buffer together with text the writer still holds.
func (w *Response) clearBody() {
	w.body.Reset()
	if w.writer != nil {
		w.writer.pending = w.writer.pending[:0]
	}
}

// IsCommitted reports whether the response has been committed.
func (w *Response) IsCommitted() bool {
	return w.committed
}

// ResetBuffer clears the body. Fails with ErrCommitted after commit.
func (w *Response) ResetBuffer() error {
	if w.committed {
		return ErrCommitted
	}
	w.clearBody()
	return nil
}

// Reset restores status, headers, content type, encoding and body to their
// initial state and forgets the opened body accessor.
// Fails with ErrCommitted after commit.
func (w *Response) Reset() error {
	if w.committed {
		return ErrCommitted
	}
	w.status = http.StatusOK
	w.errorMessage = ""
	w.headers.Reset()
	w.contentType = ""
	w.characterEncoding = DefaultResponseCharset
	w.contentLength = -1
	w.locale = language.English
	w.body.Reset()
	w.stream = nil
	w.writer = nil
	w.mode = bodyUnopened
	return nil
}

// BodyBytes returns a copy of the buffered body. Text held by the writer
// for an incomplete character is encoded first.
func (w *Response) BodyBytes() []byte {
	_ = w.flushWriter()
	return slices.Clone(w.body.Bytes())
}

// BodyString decodes the buffered body with the character encoding
// (UTF-8 when unset).
func (w *Response) BodyString() (string, error) {
	if err := w.flushWriter(); err != nil {
		return "", err
	}
	enc, err := lookupEncoding(w.characterEncoding, DefaultResponseCharset)
	if err != nil {
		return "", err
	}
	if enc == unicode.UTF8 {
		return w.body.String(), nil
	}
	return enc.NewDecoder().String(w.body.String())
}

// BodyStream writes raw bytes into a response body.
type BodyStream struct {
	buf *bytes.Buffer
}

func (s *BodyStream) Write(p []byte) (int, error) {
	return s.buf.Write(p)
}

func (s *BodyStream) WriteString(str string) (int, error) {
	return s.buf.WriteString(str)
}

// Flush is a no-op; writes land in the buffer immediately.
func (s *BodyStream) Flush() error {
	return nil
}

// BodyWriter writes text into a response body, encoding it with the
// response character encoding. A character split across writes is held
// until it is complete or the writer is flushed.
type BodyWriter struct {
	buf     *bytes.Buffer
	enc     *encoding.Encoder
	pending []byte
}

func (bw *BodyWriter) Write(p []byte) (int, error) {
	if bw.enc == nil {
		return bw.buf.Write(p)
	}
	bw.pending = append(bw.pending, p...)
	if err := bw.encode(false); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (bw *BodyWriter) WriteString(s string) (int, error) {
	return bw.Write([]byte(s))
}

// Printf formats according to a format specifier and writes the result.
func (bw *BodyWriter) Printf(format string, args ...any) (int, error) {
	return fmt.Fprintf(bw, format, args...)
}

// Flush encodes held text. An incomplete trailing character becomes the
// substitute byte.
func (bw *BodyWriter) Flush() error {
	if bw.enc == nil || len(bw.pending) == 0 {
		return nil
	}
	return bw.encode(true)
}

// encode moves pending text through the encoder, keeping an incomplete
// trailing sequence unless atEOF.
func (bw *BodyWriter) encode(atEOF bool) error {
	var dst [512]byte
	src := bw.pending
	for {
		nDst, nSrc, err := bw.enc.Transform(dst[:], src, atEOF)
		bw.buf.Write(dst[:nDst])
		src = src[nSrc:]

		switch {
		case errors.Is(err, transform.ErrShortDst):
			continue
		case err == nil, errors.Is(err, transform.ErrShortSrc):
			bw.pending = append(bw.pending[:0], src...)
			return nil
		default:
			bw.pending = bw.pending[:0]
			return fmt.Errorf("%w: %v", ErrUnsupportedCharset, err)
		}
	}
}
