package publish

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"git.home.luguber.info/inful/syllabi/internal/foundation/errors"
	"git.home.luguber.info/inful/syllabi/internal/logfields"
	"git.home.luguber.info/inful/syllabi/internal/retry"
)

const pagesEndpoint = "/wp-json/wp/v2/pages"

// WordPressConfig configures a WordPressClient.
type WordPressConfig struct {
	// BaseURL is the site root, e.g. https://example.org.
	BaseURL  string
	User     string
	Password string
	Status   string
	Timeout  time.Duration
}

// WordPressClient publishes pages through the WordPress REST API.
type WordPressClient struct {
	endpoint string
	user     string
	password string
	status   string
	client   *http.Client
}

// NewWordPressClient returns a client for the site at cfg.BaseURL.
func NewWordPressClient(cfg WordPressConfig) (*WordPressClient, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil || base.Host == "" {
		return nil, errors.ConfigError("invalid WordPress base URL").WithContext("url", cfg.BaseURL).Build()
	}
	status := cfg.Status
	if status == "" {
		status = "publish"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &WordPressClient{
		endpoint: base.String() + pagesEndpoint,
		user:     cfg.User,
		password: cfg.Password,
		status:   status,
		client:   &http.Client{Timeout: timeout},
	}, nil
}

// Name implements Publisher.
func (c *WordPressClient) Name() string { return "wordpress" }

// Close implements Publisher.
func (c *WordPressClient) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

type wpPage struct {
	ID   int    `json:"id"`
	Link string `json:"link"`
	Slug string `json:"slug"`
}

type wpPageRequest struct {
	Title   string `json:"title,omitempty"`
	Slug    string `json:"slug,omitempty"`
	Content string `json:"content"`
	Status  string `json:"status"`
	Parent  int    `json:"parent,omitempty"`
}

// Publish updates the page addressed by p.PageID, else the page with p.Slug, and
// creates the page when neither exists.
func (c *WordPressClient) Publish(ctx context.Context, p Page) (Published, error) {
	req := wpPageRequest{
		Title:   p.Title,
		Slug:    p.Slug,
		Content: p.Content,
		Status:  c.status,
		Parent:  p.ParentID,
	}

	id := p.PageID
	if id == 0 && p.Slug != "" {
		existing, err := c.findBySlug(ctx, p.Slug)
		if err != nil {
			return Published{}, err
		}
		if existing != nil {
			id = existing.ID
		}
	}

	if id != 0 {
		page, err := c.send(ctx, http.MethodPost, c.endpoint+"/"+strconv.Itoa(id), req, http.StatusOK)
		if err != nil {
			return Published{}, err
		}
		slog.Debug("Updated WordPress page", logfields.Code(p.Code), logfields.PageID(page.ID), logfields.URL(page.Link))
		return Published{URL: page.Link, PageID: page.ID}, nil
	}

	page, err := c.send(ctx, http.MethodPost, c.endpoint, req, http.StatusCreated)
	if err != nil {
		return Published{}, err
	}
	slog.Debug("Created WordPress page", logfields.Code(p.Code), logfields.PageID(page.ID), logfields.URL(page.Link))
	return Published{URL: page.Link, PageID: page.ID, Created: true}, nil
}

// findBySlug returns the page with slug, or nil when there is none.
func (c *WordPressClient) findBySlug(ctx context.Context, slug string) (*wpPage, error) {
	u := c.endpoint + "?" + url.Values{"slug": {slug}, "status": {"any"}, "context": {"edit"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to build request").Build()
	}
	body, err := c.do(req, http.StatusOK)
	if err != nil {
		return nil, err
	}
	var pages []wpPage
	if err := json.Unmarshal(body, &pages); err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "unexpected WordPress response").
			WithContext("url", u).
			Build()
	}
	if len(pages) == 0 {
		return nil, nil
	}
	return &pages[0], nil
}

func (c *WordPressClient) send(ctx context.Context, method, u string, payload wpPageRequest, want int) (*wpPage, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to encode page").Build()
	}
	req, err := http.NewRequestWithContext(ctx, method, u, bytes.NewReader(data))
	if err != nil {
		return nil, errors.WrapError(err, errors.CategoryInternal, "failed to build request").Build()
	}
	req.Header.Set("Content-Type", "application/json")
	body, err := c.do(req, want)
	if err != nil {
		return nil, err
	}
	var page wpPage
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, errors.WrapError(err, errors.CategoryPublish, "unexpected WordPress response").
			WithContext("url", u).
			Build()
	}
	if page.Link == "" {
		return nil, errors.PublishError("WordPress response has no page link").WithContext("url", u).Build()
	}
	return &page, nil
}

// do executes req and reads the full body so connections are reused.
func (c *WordPressClient) do(req *http.Request, want int) ([]byte, error) {
	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, classifyTransportError(err, req)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, classifyTransportError(err, req)
	}
	if resp.StatusCode == want {
		return body, nil
	}
	return nil, classifyStatus(req, resp, body)
}

func classifyTransportError(err error, req *http.Request) error {
	if stderrors.Is(err, context.Canceled) {
		return err
	}
	b := errors.WrapError(err, errors.CategoryNetwork, "WordPress request failed").
		WithContext("method", req.Method).
		WithContext("url", req.URL.String())
	var nerr net.Error
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.As(err, &nerr) || stderrors.Is(err, io.ErrUnexpectedEOF) {
		b = b.Retryable()
	}
	return b.Build()
}

// retryableStatus reports transient HTTP failures.
func retryableStatus(code int) bool {
	switch code {
	case http.StatusTooManyRequests, http.StatusRequestTimeout, http.StatusTooEarly:
		return true
	}
	return code >= 500 && code <= 599
}

func classifyStatus(req *http.Request, resp *http.Response, body []byte) error {
	msg := fmt.Sprintf("WordPress returned %d", resp.StatusCode)
	var b *errors.ErrorBuilder
	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		b = errors.AuthError(msg).UserAction()
	case retryableStatus(resp.StatusCode):
		b = errors.NetworkError(msg).Retryable()
		if d := parseRetryAfter(resp); d > 0 {
			b = b.WithContext(retry.ContextRetryAfter, d)
		}
	case resp.StatusCode == http.StatusNotFound:
		b = errors.NotFoundError(msg)
	default:
		b = errors.PublishError(msg)
	}
	return b.WithContext("method", req.Method).
		WithContext("url", req.URL.String()).
		WithContext("status", resp.StatusCode).
		WithContext("body", snippet(body, 300)).
		Build()
}

// parseRetryAfter parses a Retry-After header given in seconds or as an HTTP date.
func parseRetryAfter(resp *http.Response) time.Duration {
	v := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil {
		if d := time.Until(t); d > 0 {
			return d
		}
	}
	return 0
}

func snippet(b []byte, limit int) string {
	s := strings.TrimSpace(string(b))
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "…"
}
