package clients

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	timeout      = 30 * time.Second
	maxReplySize = 1 << 20
)

var ErrFailedCloseResponseBody = errors.New("failed close response body")

// HTTPClientI is the transport used by the remote blob store.
type HTTPClientI interface {
	Do(req *http.Request) (*http.Response, error)
	Put(ctx context.Context, url string, headers http.Header, body io.Reader) (statusCode int, respBody []byte, err error)
}

type transport struct {
	client *http.Client
}

func (t *transport) Do(req *http.Request) (*http.Response, error) {
	return t.client.Do(req)
}

// Put uploads body and returns the status code with at most maxReplySize
// bytes of the reply.
func (t *transport) Put(ctx context.Context, url string, headers http.Header, body io.Reader) (statusCode int, respBody []byte, err error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build upload request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}

	resp, err := t.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer func() {
		if e := resp.Body.Close(); e != nil {
			err = errors.Join(err, ErrFailedCloseResponseBody)
		}
	}()

	respBody, err = io.ReadAll(io.LimitReader(resp.Body, maxReplySize))
	return resp.StatusCode, respBody, err
}

type HTTPClient struct {
	client HTTPClientI
}

func NewHTTPClient() *HTTPClient {
	return &HTTPClient{
		client: &transport{client: &http.Client{Timeout: timeout}},
	}
}

func (h *HTTPClient) Put(ctx context.Context, url string, headers http.Header, body io.Reader) (int, []byte, error) {
	return h.client.Put(ctx, url, headers, body)
}

func (h *HTTPClient) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

func (h *HTTPClient) SetClient(mock HTTPClientI) {
	h.client = mock
}
