package internal

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
)

// HTTPRequest projects the request onto an *http.Request bound to ctx so
// that http.Handler based routers can serve it.
//
// Parameters become the parsed form. The body is opened through BodyStream
// on the first read, so reading it from the projection counts as byte access.
func (r *Request) HTTPRequest(ctx context.Context) *http.Request {
	u, err := url.ParseRequestURI(r.requestURI)
	if err != nil || r.requestURI == "" {
		u = &url.URL{Path: r.requestURI}
	}
	u.Scheme = r.scheme
	u.Host = r.hostPort()
	u.RawQuery = r.queryString

	major, minor, ok := http.ParseHTTPVersion(r.protocol)
	if !ok {
		major, minor = 1, 1
	}

	requestURI := r.requestURI
	if r.queryString != "" {
		requestURI += "?" + r.queryString
	}

	hr := &http.Request{
		Method:     r.method,
		URL:        u,
		Proto:      r.protocol,
		ProtoMajor: major,
		ProtoMinor: minor,
		Header:     r.headers.HTTP(),
		Host:       u.Host,
		RemoteAddr: net.JoinHostPort(r.remoteAddr, strconv.Itoa(r.remotePort)),
		RequestURI: requestURI,
		Form:       url.Values(r.ParameterMap()),
		PostForm:   make(url.Values),
	}

	if r.body == nil {
		hr.Body = http.NoBody
	} else {
		hr.Body = &lazyBody{req: r}
		hr.ContentLength = int64(len(r.body))
	}

	return hr.WithContext(ctx)
}

// hostPort renders the server name and, when not the scheme default, the port.
func (r *Request) hostPort() string {
	name, port := r.ServerName(), r.ServerPort()
	if port <= 0 || isDefaultPort(r.scheme, port) {
		return name
	}
	return name + ":" + strconv.Itoa(port)
}

// lazyBody opens the request body stream on first read.
type lazyBody struct {
	req    *Request
	reader io.Reader
}

func (b *lazyBody) Read(p []byte) (int, error) {
	if b.reader == nil {
		s, err := b.req.BodyStream()
		if err != nil {
			return 0, err
		}
		b.reader = s
	}
	return b.reader.Read(p)
}

func (b *lazyBody) Close() error {
	return nil
}
