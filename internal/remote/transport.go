package remote

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// DefaultTimeout bounds a single call when Request.Timeout is zero.
const DefaultTimeout = 30 * time.Second

// Request describes one outbound call.
type Request struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Timeout time.Duration // measured from the start of Do
}

// Response is a fully-read HTTP response. Non-2xx statuses are returned
// as responses, not errors.
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// OK reports whether the status is 2xx.
func (r *Response) OK() bool {
	return r.Status >= 200 && r.Status < 300
}

// Doer issues a single request.
type Doer interface {
	Do(ctx context.Context, req Request) (*Response, error)
}

// DoerFunc adapts a function to Doer.
type DoerFunc func(ctx context.Context, req Request) (*Response, error)

func (f DoerFunc) Do(ctx context.Context, req Request) (*Response, error) { return f(ctx, req) }

// HTTPTransport implements Doer over net/http.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport creates a transport. A nil client uses a fresh
// http.Client with no client-level timeout; deadlines come from each Request.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPTransport{client: client}
}

// Do performs exactly one HTTP exchange. When req.Timeout elapses the
// in-flight request is aborted and a KindTimeout error is returned.
func (t *HTTPTransport) Do(ctx context.Context, req Request) (*Response, error) {
	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	method := req.Method
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}
	httpReq, err := http.NewRequestWithContext(callCtx, method, req.URL, body)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Message: "build request", Err: err}
	}
	for k, vs := range req.Header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}

	resp, err := t.client.Do(httpReq)
	if err != nil {
		return nil, classify(ctx, callCtx, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classify(ctx, callCtx, err)
	}

	return &Response{
		Status: resp.StatusCode,
		Header: resp.Header,
		Body:   b,
	}, nil
}

// classify separates the caller canceling from our own deadline firing
// from everything else.
func classify(parent, call context.Context, err error) error {
	if parent.Err() != nil {
		return Canceled(parent.Err())
	}
	if errors.Is(call.Err(), context.DeadlineExceeded) {
		return &Error{Kind: KindTimeout, Message: "request aborted after deadline", Err: err}
	}
	return &Error{Kind: KindNetwork, Err: err}
}
