// Package remote is a capsule record store reached over HTTP.
//
// Endpoints, relative to the base URL:
//
//	POST /capsules        body CreateParams, reply {"id": "..."}
//	GET  /capsules/{id}   reply CapsuleRecord, 404 when absent
//	GET  /stats           reply {"waiting": n, "sent": n}
package remote

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/akyairhashvil/timecapsule/internal/models"
	"github.com/akyairhashvil/timecapsule/internal/store"
	"github.com/valyala/fasthttp"
)

const defaultTimeout = 10 * time.Second

// StatusError is returned for unexpected HTTP status codes.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	msg := strings.TrimSpace(e.Body)
	if len(msg) > 200 {
		msg = msg[:200]
	}
	if msg == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, msg)
}

// Client implements store.CapsuleRecordStore against a remote API.
type Client struct {
	base    string
	timeout time.Duration
	hc      *fasthttp.Client
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout bounds each request.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithDial replaces the transport dialer.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) { c.hc.Dial = dial }
}

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("api url %q: scheme must be http or https", baseURL)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("api url %q: missing host", baseURL)
	}
	c := &Client{
		base:    strings.TrimRight(u.String(), "/"),
		timeout: defaultTimeout,
		hc: &fasthttp.Client{
			Name:                "timecapsule",
			MaxIdleConnDuration: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) Create(ctx context.Context, params models.CreateParams) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	var out struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, fasthttp.MethodPost, "/capsules", body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", errors.New("create capsule: empty id in response")
	}
	return out.ID, nil
}

func (c *Client) GetByID(ctx context.Context, id string) (*models.CapsuleRecord, error) {
	var r models.CapsuleRecord
	err := c.do(ctx, fasthttp.MethodGet, "/capsules/"+url.PathEscape(id), nil, &r)
	var se *StatusError
	if errors.As(err, &se) && se.Code == fasthttp.StatusNotFound {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = id
	}
	return &r, nil
}

func (c *Client) GetStats(ctx context.Context) (models.Stats, error) {
	var s models.Stats
	if err := c.do(ctx, fasthttp.MethodGet, "/stats", nil, &s); err != nil {
		return models.Stats{}, err
	}
	return s, nil
}

func (c *Client) do(ctx context.Context, method, path string, body []byte, out any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	req.SetRequestURI(c.base + path)
	req.Header.SetMethod(method)
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	if body != nil {
		req.Header.SetContentType("application/json")
		req.SetBody(body)
	}

	// A cancelled ctx returns at once; req and resp are then released when
	// the abandoned call comes back.
	errc := make(chan error, 1)
	go func() { errc <- c.hc.DoDeadline(req, resp, deadline) }()
	var err error
	select {
	case err = <-errc:
	case <-ctx.Done():
		go func() {
			<-errc
			fasthttp.ReleaseRequest(req)
			fasthttp.ReleaseResponse(resp)
		}()
		return fmt.Errorf("%s %s: %w", method, path, ctx.Err())
	}
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	if err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return ctxErr
			}
			return fmt.Errorf("%s %s: %w", method, path, context.DeadlineExceeded)
		}
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	code := resp.StatusCode()
	if code < 200 || code > 299 {
		return &StatusError{Method: method, Path: path, Code: code, Body: string(resp.Body())}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return fmt.Errorf("%s %s: decode response: %w", method, path, err)
	}
	return nil
}

var _ store.CapsuleRecordStore = (*Client)(nil)
