// Package client builds the HTTP client handed to the extraction library.
//
// Requests go through a Transport that sets a desktop User-Agent, retries
// transient failures with exponential backoff and transparently decodes
// brotli or gzip encoded API responses.
package client

import (
	"compress/gzip"
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/ytget/ytpick/internal/logger"
)

const (
	defaultTimeout = 30 * time.Second
	defaultRetries = 3

	userAgentValue   = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"
	initialBackoff   = 200 * time.Millisecond
	maxBackoff       = 3 * time.Second
	retryableMinCode = http.StatusInternalServerError // 500

	headerUserAgent       = "User-Agent"
	headerAcceptEncoding  = "Accept-Encoding"
	headerContentEncoding = "Content-Encoding"
	headerContentLength   = "Content-Length"
	headerRange           = "Range"
	acceptedEncodings     = "br, gzip"
)

// defaultTransport is a tuned HTTP transport reused across clients.
var defaultTransport = &http.Transport{
	Proxy:                 http.ProxyFromEnvironment,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   10,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
	ResponseHeaderTimeout: 10 * time.Second,
	ForceAttemptHTTP2:     true,
	// Decoding is done by Transport so brotli is covered too.
	DisableCompression: true,
	ReadBufferSize:     16 * 1024,
	WriteBufferSize:    16 * 1024,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
}

// Config holds optional client parameters. Zero values use defaults.
type Config struct {
	Timeout   time.Duration
	Retries   int
	UserAgent string
	ProxyURL  string
}

// Client holds an http.Client whose Transport adds retry/backoff and default
// headers.
type Client struct {
	HTTPClient *http.Client
}

// New creates a new Client with a tuned Transport, default timeout, and retries.
func New() *Client {
	return NewWith(Config{})
}

// NewWith creates a new client with provided config. Zero values use defaults.
func NewWith(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	retries := cfg.Retries
	if retries <= 0 {
		retries = defaultRetries
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	tr := defaultTransport.Clone()
	// Media bodies take minutes to stream, so the timeout bounds the wait
	// for response headers rather than the whole exchange.
	tr.ResponseHeaderTimeout = timeout
	if cfg.ProxyURL != "" {
		if proxyFunc, err := proxyFromURLString(cfg.ProxyURL); err == nil {
			tr.Proxy = proxyFunc
		} else {
			logger.WithComponent(logger.ComponentClient).Warn("ignoring proxy", map[string]interface{}{
				"proxy": cfg.ProxyURL,
				"error": err.Error(),
			})
		}
	}

	return &Client{
		HTTPClient: &http.Client{
			Transport: &Transport{Base: tr, Retries: retries, UserAgent: ua},
		},
	}
}

// Transport is an http.RoundTripper adding the User-Agent, retries and
// response decoding on top of Base.
type Transport struct {
	Base      http.RoundTripper
	Retries   int
	UserAgent string
}

// RoundTrip implements http.RoundTripper. Network errors and 5xx answers are
// retried while the request body can be replayed; the last response or error
// is returned once attempts run out.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	log := logger.WithComponent(logger.ComponentClient)
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	retries := t.Retries
	if retries < 1 {
		retries = 1
	}
	ua := t.UserAgent
	if ua == "" {
		ua = userAgentValue
	}

	decode := req.Header.Get(headerAcceptEncoding) == "" && req.Header.Get(headerRange) == ""

	var (
		resp    *http.Response
		err     error
		backoff = initialBackoff
	)
	for attempt := 0; attempt < retries; attempt++ {
		r, cerr := prepare(req, attempt, ua, decode)
		if cerr != nil {
			return nil, cerr
		}
		resp, err = base.RoundTrip(r)
		if err == nil && resp.StatusCode < retryableMinCode {
			if decode {
				return decodeBody(resp)
			}
			return resp, nil
		}
		if attempt == retries-1 || !replayable(req) {
			break
		}

		fields := map[string]interface{}{"url": redact(req.URL), "attempt": attempt + 1}
		if err != nil {
			fields["error"] = err.Error()
		} else {
			fields["status"] = resp.StatusCode
			_ = resp.Body.Close()
		}
		log.Debug("retrying request", fields)

		if werr := sleep(req.Context(), backoff); werr != nil {
			return nil, werr
		}
		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
	if err == nil && decode {
		return decodeBody(resp)
	}
	return resp, err
}

// prepare clones req so the caller's request is never mutated, rewinding the
// body for retries.
func prepare(req *http.Request, attempt int, ua string, decode bool) (*http.Request, error) {
	r := req.Clone(req.Context())
	if r.Header.Get(headerUserAgent) == "" {
		r.Header.Set(headerUserAgent, ua)
	}
	if decode {
		r.Header.Set(headerAcceptEncoding, acceptedEncodings)
	}
	if attempt > 0 && req.GetBody != nil {
		body, err := req.GetBody()
		if err != nil {
			return nil, err
		}
		r.Body = body
	}
	return r, nil
}

func replayable(req *http.Request) bool {
	return req.Body == nil || req.Body == http.NoBody || req.GetBody != nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// decodeBody swaps a br or gzip body for its decoded form.
func decodeBody(resp *http.Response) (*http.Response, error) {
	var reader io.Reader
	switch strings.ToLower(strings.TrimSpace(resp.Header.Get(headerContentEncoding))) {
	case "br":
		reader = brotli.NewReader(resp.Body)
	case "gzip":
		gz, err := gzip.NewReader(resp.Body)
		if err != nil {
			_ = resp.Body.Close()
			return nil, err
		}
		reader = gz
	default:
		return resp, nil
	}
	resp.Body = &decodedBody{Reader: reader, closer: resp.Body}
	resp.Header.Del(headerContentEncoding)
	resp.Header.Del(headerContentLength)
	resp.ContentLength = -1
	resp.Uncompressed = true
	return resp, nil
}

type decodedBody struct {
	io.Reader
	closer io.Closer
}

func (b *decodedBody) Close() error {
	return b.closer.Close()
}

// redact drops the query string, which carries signatures and keys.
func redact(u *url.URL) string {
	if u == nil {
		return ""
	}
	c := *u
	c.RawQuery = ""
	return c.String()
}

// proxyFromURLString parses a proxy URL and returns a Proxy function.
func proxyFromURLString(raw string) (func(*http.Request) (*url.URL, error), error) {
	u, err := url.Parse(raw)
	if err != nil {
		return nil, err
	}
	return http.ProxyURL(u), nil
}
