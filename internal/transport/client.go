package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/goliatone/go-account-settings/pkg/apierror"
	"github.com/google/uuid"
)

const (
	ContentTypeJSON       = "application/json"
	ContentTypeMergePatch = "application/merge-patch+json"
	ContentTypeForm       = "application/x-www-form-urlencoded"

	HeaderRequestID = "X-Request-ID"
)

// Doer executes HTTP requests. *http.Client satisfies it; hosts typically
// supply one that carries authentication.
type Doer interface {
	Do(*http.Request) (*http.Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(*http.Request) (*http.Response, error)

func (fn DoerFunc) Do(req *http.Request) (*http.Response, error) {
	return fn(req)
}

// Option configures a Client.
type Option func(*Client)

// WithDoer sets the HTTP executor. Defaults to http.DefaultClient.
func WithDoer(doer Doer) Option {
	return func(c *Client) {
		if doer != nil {
			c.doer = doer
		}
	}
}

// WithHeader adds a static header to every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if key != "" {
			c.headers.Set(key, value)
		}
	}
}

// WithRequestIDFunc overrides the request id generator.
func WithRequestIDFunc(fn func() string) Option {
	return func(c *Client) {
		if fn != nil {
			c.requestID = fn
		}
	}
}

// RequestOption adjusts a single outgoing request.
type RequestOption func(*http.Request)

// WithRequestHeader sets a header on one request.
func WithRequestHeader(key, value string) RequestOption {
	return func(req *http.Request) {
		req.Header.Set(key, value)
	}
}

// WithQuery appends query parameters to one request.
func WithQuery(values url.Values) RequestOption {
	return func(req *http.Request) {
		if len(values) == 0 {
			return
		}
		query := req.URL.Query()
		for key, items := range values {
			for _, item := range items {
				query.Add(key, item)
			}
		}
		req.URL.RawQuery = query.Encode()
	}
}

// Client performs JSON round trips and classifies failures into
// *apierror.Error values.
type Client struct {
	doer      Doer
	headers   http.Header
	requestID func() string
}

// New builds a Client.
func New(opts ...Option) *Client {
	c := &Client{
		doer:      http.DefaultClient,
		headers:   http.Header{},
		requestID: uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Response is a successful (2xx) reply.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Decode unmarshals the body into out. Empty bodies leave out untouched.
func (r *Response) Decode(out any) error {
	if r == nil || out == nil || len(bytes.TrimSpace(r.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Body, out); err != nil {
		return fmt.Errorf("transport: decode response: %w", err)
	}
	return nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, target string, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodGet, target, nil, "", opts...)
}

// GetJSON issues a GET request and decodes the body into out.
func (c *Client) GetJSON(ctx context.Context, target string, out any, opts ...RequestOption) error {
	resp, err := c.Get(ctx, target, opts...)
	if err != nil {
		return err
	}
	return resp.Decode(out)
}

// PatchMerge sends payload as an RFC 7396 merge patch: only keys present in
// payload are modified and explicit nulls clear a field.
func (c *Client) PatchMerge(ctx context.Context, target string, payload any, opts ...RequestOption) (*Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("transport: encode patch: %w", err)
	}
	return c.Do(ctx, http.MethodPatch, target, bytes.NewReader(body), ContentTypeMergePatch, opts...)
}

// PostJSON sends payload as a JSON body.
func (c *Client) PostJSON(ctx context.Context, target string, payload any, opts ...RequestOption) (*Response, error) {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("transport: encode body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	return c.Do(ctx, http.MethodPost, target, body, ContentTypeJSON, opts...)
}

// PostForm sends form as an urlencoded body.
func (c *Client) PostForm(ctx context.Context, target string, form url.Values, opts ...RequestOption) (*Response, error) {
	return c.Do(ctx, http.MethodPost, target, strings.NewReader(form.Encode()), ContentTypeForm, opts...)
}

// Do executes a request. Transport failures become apierror network errors,
// non-2xx replies are classified with apierror.FromResponse.
func (c *Client) Do(ctx context.Context, method, target string, body io.Reader, contentType string, opts ...RequestOption) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("transport: build %s %s: %w", method, target, err)
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}
	req.Header.Set("Accept", ContentTypeJSON)
	if contentType != "" && body != nil {
		req.Header.Set("Content-Type", contentType)
	}
	for _, opt := range opts {
		if opt != nil {
			opt(req)
		}
	}
	if req.Header.Get(HeaderRequestID) == "" {
		req.Header.Set(HeaderRequestID, c.requestID())
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		return nil, apierror.Network(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apierror.Network(fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, apierror.FromResponse(resp.StatusCode, raw)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header.Clone(),
		Body:   raw,
	}, nil
}

// JoinURL appends path to base, normalising the slash between them.
func JoinURL(base, path string) string {
	if base == "" {
		return path
	}
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

// AbsoluteURL returns ref unchanged when it is absolute and otherwise appends
// it to base, keeping any path base carries.
func AbsoluteURL(base, ref string) string {
	if ref == "" {
		return ""
	}
	parsed, err := url.Parse(ref)
	if err != nil || parsed.IsAbs() {
		return ref
	}
	return JoinURL(base, ref)
}
