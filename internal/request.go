package internal

import (
	"bufio"
	"bytes"
	"fmt"
	"maps"
	"mime/multipart"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/transform"

	"github.com/dmitrymomot/relay/pkg/header"
	"github.com/dmitrymomot/relay/pkg/i18n"
	"github.com/dmitrymomot/relay/pkg/session"
)

// Request defaults.
const (
	DefaultProtocol   = "HTTP/1.1"
	DefaultScheme     = "http"
	DefaultServerName = "localhost"
	DefaultServerPort = 80
	DefaultRemoteAddr = "127.0.0.1"
	DefaultRemoteHost = "localhost"

	// DispatcherTypeRequest is the only dispatcher type a synthetic request has.
	DispatcherTypeRequest = "REQUEST"
)

// Request is an in-memory HTTP request built for a single dispatch.
// It is owned by one exchange and is not safe for concurrent use.
type Request struct {
	headers    header.Store
	attributes map[string]any
	parameters map[string][]string
	userRoles  map[string]struct{}
	session    *session.Session
	stream     *bytes.Reader
	reader     *bufio.Reader

	method             string
	protocol           string
	scheme             string
	serverName         string
	remoteAddr         string
	remoteHost         string
	localName          string
	localAddr          string
	contextPath        string
	handlerPath        string
	requestURI         string
	queryString        string
	contentType        string
	characterEncoding  string
	remoteUser         string
	requestedSessionID string

	paramNames []string
	locales    []language.Tag
	cookies    []*http.Cookie
	body       []byte

	serverPort int
	remotePort int
	localPort  int
	mode       bodyMode
	secure     bool
}

// NewRequest creates a request for method and uri with default connection
// metadata and an English locale stack.
func NewRequest(method, uri string) *Request {
	return &Request{
		method:     method,
		requestURI: uri,
		protocol:   DefaultProtocol,
		scheme:     DefaultScheme,
		serverName: DefaultServerName,
		serverPort: DefaultServerPort,
		remoteAddr: DefaultRemoteAddr,
		remoteHost: DefaultRemoteHost,
		remotePort: DefaultServerPort,
		localName:  DefaultServerName,
		localAddr:  DefaultRemoteAddr,
		localPort:  DefaultServerPort,
		locales:    []language.Tag{language.English},
		attributes: make(map[string]any),
		parameters: make(map[string][]string),
		userRoles:  make(map[string]struct{}),
	}
}

func (r *Request) Method() string { return r.method }
func (r *Request) SetMethod(method string) { r.method = method }

func (r *Request) Protocol() string { return r.protocol }
func (r *Request) SetProtocol(protocol string) { r.protocol = protocol }

func (r *Request) Scheme() string { return r.scheme }

// SetScheme sets the scheme. An https scheme marks the request secure.
func (r *Request) SetScheme(scheme string) {
	r.scheme = scheme
	r.secure = strings.EqualFold(scheme, "https")
}

func (r *Request) IsSecure() bool { return r.secure }

func (r *Request) RequestURI() string { return r.requestURI }
func (r *Request) SetRequestURI(uri string) { r.requestURI = uri }

func (r *Request) QueryString() string { return r.queryString }
func (r *Request) SetQueryString(q string) { r.queryString = q }

func (r *Request) ContextPath() string { return r.contextPath }
func (r *Request) SetContextPath(p string) { r.contextPath = p }

// HandlerPath is the portion of the URI that selected the handler.
func (r *Request) HandlerPath() string { return r.handlerPath }
func (r *Request) SetHandlerPath(p string) { r.handlerPath = p }

// PathInfo is always empty: the whole path is matched by the router.
func (r *Request) PathInfo() string { return "" }

func (r *Request) DispatcherType() string { return DispatcherTypeRequest }

func (r *Request) SetServerName(name string) { r.serverName = name }
func (r *Request) SetServerPort(port int) { r.serverPort = port }

func (r *Request) RemoteAddr() string { return r.remoteAddr }
func (r *Request) SetRemoteAddr(addr string) { r.remoteAddr = addr }
func (r *Request) RemoteHost() string { return r.remoteHost }
func (r *Request) SetRemoteHost(host string) { r.remoteHost = host }
func (r *Request) RemotePort() int { return r.remotePort }
func (r *Request) SetRemotePort(port int) { r.remotePort = port }
func (r *Request) LocalName() string { return r.localName }
func (r *Request) SetLocalName(name string) { r.localName = name }
func (r *Request) LocalAddr() string { return r.localAddr }
func (r *Request) SetLocalAddr(addr string) { r.localAddr = addr }
func (r *Request) LocalPort() int { return r.localPort }
func (r *Request) SetLocalPort(port int) { r.localPort = port }
func (r *Request) RemoteUser() string { return r.remoteUser }
func (r *Request) SetRemoteUser(user string) { r.remoteUser = user }
func (r *Request) AddUserRole(roles ...string) {
	for _, role := range roles {
		r.userRoles[role] = struct{}{}
	}
}

// IsUserInRole reports whether role was granted with AddUserRole.
// No authorization is enforced by the request itself.
func (r *Request) IsUserInRole(role string) bool {
	_, ok := r.userRoles[role]
	return ok
}

// Logout forgets the remote user and its roles.
func (r *Request) Logout() {
	r.remoteUser = ""
	clear(r.userRoles)
}

// ServerName returns the host from the Host header, or the configured
// server name when the header is absent. Bracketed IPv6 literals keep
// their brackets.
func (r *Request) ServerName() string {
	if host, ok := r.headers.Get("Host"); ok {
		name, _ := splitHost(host)
		return name
	}
	return r.serverName
}

// ServerPort returns the port from the Host header, or the configured
// server port when the header carries none or an unparsable one.
func (r *Request) ServerPort() int {
	if host, ok := r.headers.Get("Host"); ok {
		if _, port := splitHost(host); port != "" {
			if n, err := strconv.Atoi(port); err == nil {
				return n
			}
		}
	}
	return r.serverPort
}

// splitHost splits a Host header value into name and optional port.
func splitHost(host string) (name, port string) {
	host = strings.TrimSpace(host)
	if strings.HasPrefix(host, "[") {
		end := strings.IndexByte(host, ']')
		if end < 0 {
			return host, ""
		}
		name, rest := host[:end+1], host[end+1:]
		if p, ok := strings.CutPrefix(rest, ":"); ok {
			return name, p
		}
		return name, ""
	}
	if idx := strings.IndexByte(host, ':'); idx > 0 {
		return host[:idx], host[idx+1:]
	}
	return host, ""
}

// RequestURL reconstructs scheme://host[:port]path without the query string.
// The port is omitted when it is the default for the scheme.
func (r *Request) RequestURL() string {
	var sb strings.Builder
	sb.WriteString(r.scheme)
	sb.WriteString("://")
	sb.WriteString(r.ServerName())

	port := r.ServerPort()
	if port > 0 && !isDefaultPort(r.scheme, port) {
		sb.WriteByte(':')
		sb.WriteString(strconv.Itoa(port))
	}
	sb.WriteString(r.requestURI)
	return sb.String()
}

func isDefaultPort(scheme string, port int) bool {
	switch strings.ToLower(scheme) {
	case "http":
		return port == 80
	case "https":
		return port == 443
	}
	return false
}

// Header returns the first value of name, or an empty string.
func (r *Request) Header(name string) string {
	return r.headers.Value(name)
}

// Headers returns every value of name in insertion order.
func (r *Request) Headers(name string) []string {
	return r.headers.Values(name)
}

// HeaderNames returns header names in first-registration order.
func (r *Request) HeaderNames() []string {
	return r.headers.Names()
}

// SetHeader replaces all values of name.
func (r *Request) SetHeader(name, value string) {
	r.headers.Set(name, value)
}

// AddHeader appends a value to name.
func (r *Request) AddHeader(name, value string) {
	r.headers.Add(name, value)
}

// IntHeader parses the first value of name as an integer.
// Returns -1 when the header is absent.
func (r *Request) IntHeader(name string) (int, error) {
	v, ok := r.headers.Get(name)
	if !ok {
		return -1, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, &ParseError{Header: name, Value: v, Err: err}
	}
	return n, nil
}

// DateHeader parses the first value of name as an HTTP date and returns
// milliseconds since the Unix epoch. RFC 1123, RFC 850 and ANSI C asctime
// layouts are accepted, all in GMT. Returns -1 when the header is absent.
func (r *Request) DateHeader(name string) (int64, error) {
	v, ok := r.headers.Get(name)
	if !ok {
		return -1, nil
	}
	t, err := http.ParseTime(strings.TrimSpace(v))
	if err != nil {
		return 0, &ParseError{Header: name, Value: v, Err: err}
	}
	return t.UnixMilli(), nil
}

// SetContent replaces the body and forgets any opened accessor.
// A nil body is absent; ContentLength reports -1 for it.
func (r *Request) SetContent(body []byte) {
	r.body = body
	r.stream = nil
	r.reader = nil
	r.mode = bodyUnopened
}

// Content returns the raw body bytes without opening an accessor.
func (r *Request) Content() []byte {
	return r.body
}

// ContentLength returns the body size, or -1 when no body is set.
func (r *Request) ContentLength() int64 {
	if r.body == nil {
		return -1
	}
	return int64(len(r.body))
}

func (r *Request) ContentType() string { return r.contentType }

// SetContentType sets the Content-Type header. A charset parameter in the
// value becomes the character encoding.
func (r *Request) SetContentType(contentType string) {
	r.contentType = contentType
	r.headers.Set("Content-Type", contentType)
	if enc, ok := charsetParam(contentType); ok {
		r.characterEncoding = enc
	}
}

func (r *Request) CharacterEncoding() string { return r.characterEncoding }

// SetCharacterEncoding sets the body encoding. When the content type has no
// charset parameter one is appended.
func (r *Request) SetCharacterEncoding(enc string) {
	r.characterEncoding = enc
	if ct, changed := withCharset(r.contentType, enc); changed {
		r.contentType = ct
		r.headers.Set("Content-Type", ct)
	}
}

// BodyStream opens the body for byte access. Repeated calls return the same
// reader. Fails with ErrIllegalState when BodyReader was called first.
func (r *Request) BodyStream() (*bytes.Reader, error) {
	if r.mode == bodyText {
		return nil, fmt.Errorf("%w: body already opened as %s", ErrIllegalState, r.mode)
	}
	if r.stream == nil {
		r.stream = bytes.NewReader(r.body)
		r.mode = bodyBytes
	}
	return r.stream, nil
}

// BodyReader opens the body for text access, decoding with the character
// encoding (ISO-8859-1 when unset). Repeated calls return the same reader.
// Fails with ErrIllegalState when BodyStream was called first.
func (r *Request) BodyReader() (*bufio.Reader, error) {
	if r.mode == bodyBytes {
		return nil, fmt.Errorf("%w: body already opened as %s", ErrIllegalState, r.mode)
	}
	if r.reader != nil {
		return r.reader, nil
	}

	enc, err := lookupEncoding(r.characterEncoding, DefaultRequestCharset)
	if err != nil {
		return nil, err
	}
	r.reader = bufio.NewReader(transform.NewReader(bytes.NewReader(r.body), enc.NewDecoder()))
	r.mode = bodyText
	return r.reader, nil
}

// Parameter returns the first value of name.
func (r *Request) Parameter(name string) (string, bool) {
	vs := r.parameters[name]
	if len(vs) == 0 {
		return "", false
	}
	return vs[0], true
}

// ParameterValues returns every value of name, or nil when absent.
func (r *Request) ParameterValues(name string) []string {
	vs, ok := r.parameters[name]
	if !ok {
		return nil
	}
	return slices.Clone(vs)
}

// ParameterNames returns parameter names in insertion order.
func (r *Request) ParameterNames() []string {
	return slices.Clone(r.paramNames)
}

// ParameterMap returns a snapshot of all parameters.
// Changes to the snapshot do not affect the request.
func (r *Request) ParameterMap() map[string][]string {
	m := make(map[string][]string, len(r.parameters))
	for k, vs := range r.parameters {
		m[k] = slices.Clone(vs)
	}
	return m
}

// SetParameter replaces the values of name.
func (r *Request) SetParameter(name string, values ...string) {
	if _, ok := r.parameters[name]; !ok {
		r.paramNames = append(r.paramNames, name)
	}
	r.parameters[name] = slices.Clone(values)
}

// AddParameter appends values to name.
func (r *Request) AddParameter(name string, values ...string) {
	if _, ok := r.parameters[name]; !ok {
		r.paramNames = append(r.paramNames, name)
	}
	r.parameters[name] = append(r.parameters[name], values...)
}

// Attribute returns the attribute stored under name, or nil.
func (r *Request) Attribute(name string) any {
	return r.attributes[name]
}

// SetAttribute stores v under name. A nil value removes the attribute.
func (r *Request) SetAttribute(name string, v any) {
	if v == nil {
		delete(r.attributes, name)
		return
	}
	r.attributes[name] = v
}

func (r *Request) RemoveAttribute(name string) {
	delete(r.attributes, name)
}

// AttributeNames returns attribute names in sorted order.
func (r *Request) AttributeNames() []string {
	return slices.Sorted(maps.Keys(r.attributes))
}

// SetCookies replaces the cookie list and regenerates the Cookie header.
// An empty list removes the header.
func (r *Request) SetCookies(cookies ...*http.Cookie) {
	cookies = slices.DeleteFunc(slices.Clone(cookies), func(c *http.Cookie) bool { return c == nil })
	if len(cookies) == 0 {
		r.cookies = nil
		r.headers.Del("Cookie")
		return
	}

	r.cookies = cookies
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	r.headers.Set("Cookie", strings.Join(pairs, "; "))
}

// Cookies returns the cookies set with SetCookies.
func (r *Request) Cookies() []*http.Cookie {
	return slices.Clone(r.cookies)
}

// Cookie returns the named cookie or http.ErrNoCookie.
func (r *Request) Cookie(name string) (*http.Cookie, error) {
	for _, c := range r.cookies {
		if c.Name == name {
			return c, nil
		}
	}
	return nil, http.ErrNoCookie
}

// Locale returns the most preferred locale.
func (r *Request) Locale() language.Tag {
	if len(r.locales) == 0 {
		return language.English
	}
	return r.locales[0]
}

// Locales returns the locale stack, most preferred first.
func (r *Request) Locales() []language.Tag {
	return slices.Clone(r.locales)
}

// SetLocales replaces the locale stack without touching headers.
// An empty stack falls back to English.
func (r *Request) SetLocales(tags ...language.Tag) {
	if len(tags) == 0 {
		tags = []language.Tag{language.English}
	}
	r.locales = slices.Clone(tags)
}

// AddPreferredLocale pushes tag to the front of the locale stack and
// regenerates the Accept-Language header from the whole stack.
func (r *Request) AddPreferredLocale(tag language.Tag) {
	r.locales = slices.Insert(r.locales, 0, tag)
	r.headers.Set("Accept-Language", i18n.FormatAcceptLanguage(r.locales))
}

// Session returns the current session. When create is true and there is
// no usable session a new one is created. An invalidated session is
// returned as is when create is false.
func (r *Request) Session(create bool) *session.Session {
	if create && (r.session == nil || r.session.Invalidated) {
		r.session = session.New()
	}
	return r.session
}

// SessionOrCreate is Session(true).
func (r *Request) SessionOrCreate() *session.Session {
	return r.Session(true)
}

// SetSession attaches a session loaded from a store.
func (r *Request) SetSession(s *session.Session) {
	r.session = s
}

// ChangeSessionID gives the current session a new identifier.
// Fails with ErrNoSession when no session exists.
func (r *Request) ChangeSessionID() (string, error) {
	if r.session == nil {
		return "", ErrNoSession
	}
	return r.session.RegenerateID()
}

// RequestedSessionID is the session identifier the request arrived with.
func (r *Request) RequestedSessionID() string { return r.requestedSessionID }
func (r *Request) SetRequestedSessionID(id string) { r.requestedSessionID = id }

// IsRequestedSessionIDValid reports whether the requested identifier names
// the current, usable session.
func (r *Request) IsRequestedSessionIDValid() bool {
	return r.requestedSessionID != "" && r.session != nil &&
		!r.session.Invalidated && r.session.ID == r.requestedSessionID
}

// Forward is not supported: the request never re-enters the router.
func (r *Request) Forward(path string) error {
	return fmt.Errorf("%w: forward to %s", ErrUnsupported, path)
}

// Include is not supported: the request never re-enters the router.
func (r *Request) Include(path string) error {
	return fmt.Errorf("%w: include %s", ErrUnsupported, path)
}

// Upgrade is not supported.
func (r *Request) Upgrade(protocol string) error {
	return fmt.Errorf("%w: upgrade to %s", ErrUnsupported, protocol)
}

// StartAsync always fails: exchanges are synchronous.
func (r *Request) StartAsync() error {
	return fmt.Errorf("%w: asynchronous processing is not available", ErrIllegalState)
}

func (r *Request) IsAsyncStarted() bool { return false }
func (r *Request) IsAsyncSupported() bool { return false }

// MultipartForm is not supported.
func (r *Request) MultipartForm() (*multipart.Form, error) {
	return nil, fmt.Errorf("%w: multipart", ErrUnsupported)
}
