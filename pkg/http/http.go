// Package http provides the fluent outgoing HTTP client used to talk to the
// catalog API.
//
// Usage:
//
//	resp, err := http.New("GET", base+"/categories").
//	    Resource("categories").
//	    Bearer(token).
//	    Timeout(5 * time.Second).
//	    WithContext(ctx).
//	    Send()
//
//	var cats []models.Category
//	err = resp.JSON(&cats)
//
//	// multipart upload
//	resp, err := http.New("POST", base+"/files").File("file", "photo.jpg", f).Send()
//
// A request is attempted exactly once.
package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	gohttp "net/http"
	"strconv"
	"time"

	"github.com/shashiranjanraj/storeadmin/pkg/metrics"
)

var defaultTransport = &gohttp.Transport{
	Proxy:               gohttp.ProxyFromEnvironment,
	MaxIdleConns:        100,
	MaxIdleConnsPerHost: 32,
	IdleConnTimeout:     90 * time.Second,
}

// DefaultClient is the shared HTTP client used by requests that do not set
// their own with Client.
var DefaultClient = &gohttp.Client{
	Transport: defaultTransport,
}

// ------------------- Request -------------------

type filePart struct {
	field    string
	filename string
	r        io.Reader
}

// Request is a fluent HTTP request builder.
type Request struct {
	method   string
	url      string
	resource string
	headers  map[string]string
	body     interface{}
	file     *filePart
	timeout  time.Duration
	ctx      context.Context
	client   *gohttp.Client
}

// New starts a request for method and url.
func New(method, url string) *Request {
	return &Request{
		method:   method,
		url:      url,
		resource: "other",
		headers:  map[string]string{"Accept": "application/json"},
		timeout:  30 * time.Second,
		ctx:      context.Background(),
	}
}

// Header adds a single header to the request.
func (r *Request) Header(key, value string) *Request {
	r.headers[key] = value
	return r
}

// Bearer sets the Authorization: Bearer <token> header. Empty tokens are ignored.
func (r *Request) Bearer(token string) *Request {
	if token == "" {
		return r
	}
	return r.Header("Authorization", "Bearer "+token)
}

// Resource names the API resource for metrics labelling ("products", "files", ...).
func (r *Request) Resource(name string) *Request {
	r.resource = name
	return r
}

// Body sets the request body. v is marshalled to JSON automatically.
// Pass a string or []byte to send raw bodies.
func (r *Request) Body(v interface{}) *Request {
	r.body = v
	return r
}

// File turns the request into a multipart/form-data upload with a single
// file part. Body is ignored when a file is set.
func (r *Request) File(field, filename string, content io.Reader) *Request {
	r.file = &filePart{field: field, filename: filename, r: content}
	return r
}

// Timeout bounds the whole request, including reading the body.
func (r *Request) Timeout(d time.Duration) *Request {
	if d > 0 {
		r.timeout = d
	}
	return r
}

// WithContext sets a custom context.
func (r *Request) WithContext(ctx context.Context) *Request {
	if ctx != nil {
		r.ctx = ctx
	}
	return r
}

// Context returns the request's context.
func (r *Request) Context() context.Context { return r.ctx }

// Client overrides DefaultClient for this request.
func (r *Request) Client(c *gohttp.Client) *Request {
	r.client = c
	return r
}

// ------------------- Send -------------------

// Send executes the request once and returns a Response. Non-2xx statuses
// are not errors at this layer; inspect OK or StatusCode.
func (r *Request) Send() (*Response, error) {
	return r.do()
}

func (r *Request) do() (resp *Response, err error) {
	start := time.Now()
	status := "error"
	defer func() {
		metrics.ObserveRemoteCall(r.method, r.resource, status, start)
	}()

	body, ct, err := r.buildBody()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(r.ctx, r.timeout)
	defer cancel()

	req, err := gohttp.NewRequestWithContext(ctx, r.method, r.url, body)
	if err != nil {
		return nil, fmt.Errorf("http: build request: %w", err)
	}

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}
	if ct != "" {
		req.Header.Set("Content-Type", ct)
	}

	client := r.client
	if client == nil {
		client = DefaultClient
	}

	native, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http: send %s %s: %w", r.method, r.url, err)
	}

	raw, err := io.ReadAll(native.Body)
	native.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("http: read body: %w", err)
	}

	status = strconv.Itoa(native.StatusCode)
	return &Response{
		StatusCode: native.StatusCode,
		Headers:    native.Header,
		Raw:        raw,
	}, nil
}

func (r *Request) buildBody() (io.Reader, string, error) {
	if r.file != nil {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile(r.file.field, r.file.filename)
		if err != nil {
			return nil, "", fmt.Errorf("http: multipart part: %w", err)
		}
		if _, err := io.Copy(part, r.file.r); err != nil {
			return nil, "", fmt.Errorf("http: multipart copy: %w", err)
		}
		if err := mw.Close(); err != nil {
			return nil, "", fmt.Errorf("http: multipart close: %w", err)
		}
		return &buf, mw.FormDataContentType(), nil
	}

	if r.body == nil {
		return nil, "", nil
	}
	switch v := r.body.(type) {
	case string:
		return bytes.NewBufferString(v), "text/plain", nil
	case []byte:
		return bytes.NewReader(v), "application/octet-stream", nil
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, "", fmt.Errorf("http: marshal body: %w", err)
		}
		return bytes.NewReader(b), "application/json", nil
	}
}

// ------------------- Response -------------------

// Response wraps the HTTP response with convenience methods.
type Response struct {
	StatusCode int
	Headers    gohttp.Header
	Raw        []byte
}

// OK reports whether the status code is 2xx.
func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// JSON unmarshals the response body into dest.
func (r *Response) JSON(dest interface{}) error {
	if err := json.Unmarshal(r.Raw, dest); err != nil {
		return fmt.Errorf("http: decode JSON: %w", err)
	}
	return nil
}

// Text returns the response body as a string.
func (r *Response) Text() string {
	return string(r.Raw)
}
