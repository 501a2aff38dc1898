// Package repositories is the typed client for the remote catalog and order
// API. Every method performs exactly one HTTP call and reports failures as
// *RemoteError; there is no retry and no caching at this layer.
package repositories

import (
	"bytes"
	"context"
	"fmt"
	gohttp "net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/shashiranjanraj/storeadmin/config"
	"github.com/shashiranjanraj/storeadmin/pkg/http"
	"github.com/shashiranjanraj/storeadmin/pkg/reqid"
)

// RemoteClient talks to the catalog API and, for orders, to the storefront
// API.
type RemoteClient struct {
	baseURL   string
	ordersURL string
	token     string
	timeout   time.Duration
	client    *gohttp.Client
	limiter   *rate.Limiter
}

// Option customises a RemoteClient.
type Option func(*RemoteClient)

// WithToken sets the bearer token.
func WithToken(token string) Option {
	return func(c *RemoteClient) { c.token = token }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *RemoteClient) { c.timeout = d }
}

// WithOrdersURL points order calls at a different host.
func WithOrdersURL(url string) Option {
	return func(c *RemoteClient) { c.ordersURL = url }
}

// WithHTTPClient overrides the shared HTTP client.
func WithHTTPClient(hc *gohttp.Client) Option {
	return func(c *RemoteClient) { c.client = hc }
}

// WithRateLimit caps outgoing calls at perSecond; 0 removes the cap.
func WithRateLimit(perSecond float64) Option {
	return func(c *RemoteClient) {
		if perSecond <= 0 {
			c.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// NewRemoteClient creates a client for baseURL.
func NewRemoteClient(baseURL string, opts ...Option) *RemoteClient {
	c := &RemoteClient{
		baseURL:   baseURL,
		ordersURL: baseURL,
		timeout:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewRemoteClientFromConfig creates a client from API_BASE_URL, API_TOKEN,
// API_TIMEOUT, API_RATE_LIMIT and ORDERS_API_BASE_URL.
func NewRemoteClientFromConfig() *RemoteClient {
	return NewRemoteClient(config.APIBaseURL(),
		WithToken(config.APIToken()),
		WithTimeout(config.APITimeout()),
		WithRateLimit(config.APIRateLimit()),
		WithOrdersURL(config.OrdersBaseURL()),
	)
}

// BaseURL returns the catalog API root.
func (c *RemoteClient) BaseURL() string { return c.baseURL }

func (c *RemoteClient) request(ctx context.Context, method, base, path, resource string) *http.Request {
	req := http.New(method, base+path).
		Resource(resource).
		Bearer(c.token).
		Timeout(c.timeout).
		WithContext(ctx)
	if id := reqid.FromCtx(ctx); id != "" {
		req.Header(reqid.Header, id)
	}
	if c.client != nil {
		req.Client(c.client)
	}
	return req
}

// call performs one JSON round trip. out may be nil when the response body
// is not needed.
func (c *RemoteClient) call(ctx context.Context, method, path, resource string, body, out interface{}) error {
	return c.callBase(ctx, c.baseURL, method, path, resource, body, out)
}

func (c *RemoteClient) callBase(ctx context.Context, base, method, path, resource string, body, out interface{}) error {
	req := c.request(ctx, method, base, path, resource)
	if body != nil {
		req.Body(body)
	}
	return c.send(req, method, path, out)
}

func (c *RemoteClient) send(req *http.Request, method, path string, out interface{}) error {
	resp, err := c.sendRaw(req, method, path)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Raw)) == 0 {
		return nil
	}
	if err := resp.JSON(out); err != nil {
		return &RemoteError{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: fmt.Sprintf("unexpected response body: %v", err),
			Err:     err,
		}
	}
	return nil
}

// sendRaw performs the request and turns transport failures and non-2xx
// statuses into *RemoteError.
func (c *RemoteClient) sendRaw(req *http.Request, method, path string) (*http.Response, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(req.Context()); err != nil {
			return nil, &RemoteError{Method: method, Path: path, Message: err.Error(), Err: err}
		}
	}
	resp, err := req.Send()
	if err != nil {
		return nil, &RemoteError{Method: method, Path: path, Message: err.Error(), Err: err}
	}
	if !resp.OK() {
		return nil, &RemoteError{
			Status:  resp.StatusCode,
			Method:  method,
			Path:    path,
			Message: errorMessage(resp.StatusCode, resp.Raw),
		}
	}
	return resp, nil
}
