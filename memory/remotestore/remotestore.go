// Package remotestore forwards memory operations to an external memory service
// that speaks the same /memory HTTP API as this server.
package remotestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/jrsteele09/ha-memory-server/internal/errors"
	"github.com/jrsteele09/ha-memory-server/memory"
	"github.com/pkg/errors"
)

const (
	DefaultTimeout  = 30 * time.Second
	maxResponseSize = 4 << 20
)

type Client struct {
	baseURL    string
	timeout    time.Duration
	httpClient *http.Client
}

var _ memory.Repo = (*Client)(nil)

type Option func(*Client)

// WithTimeout bounds every call to the memory service.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

func New(baseURL string, options ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.Errorf("[remotestore.New] invalid memory service URL %q", baseURL)
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
		httpClient: &http.Client{},
	}
	for _, opt := range options {
		opt(c)
	}
	return c, nil
}

// Insert stores m remotely. The service assigns its own id and timestamps,
// which are copied back into m.
func (c *Client) Insert(ctx context.Context, m *memory.Memory) error {
	body, err := json.Marshal(memory.StoreRequest{Content: m.Content, Metadata: m.Metadata, Tags: m.Tags})
	if err != nil {
		return errors.Wrap(err, "[remotestore.Insert] encode")
	}

	var resp memory.StoreResponse
	if err := c.do(ctx, http.MethodPost, "/memory/store", nil, body, &resp); err != nil {
		return err
	}
	if resp.Memory != nil {
		*m = *resp.Memory
	} else if resp.MemoryID != "" {
		m.ID = resp.MemoryID
	}
	return nil
}

func (c *Client) Delete(ctx context.Context, id string) error {
	var resp memory.DeleteResponse
	return c.do(ctx, http.MethodDelete, "/memory/"+url.PathEscape(id), nil, nil, &resp)
}

func (c *Client) Search(ctx context.Context, q memory.SearchQuery) ([]*memory.Memory, error) {
	params := url.Values{}
	if q.Query != "" {
		params.Set("query", q.Query)
	}
	if len(q.Tags) > 0 {
		params.Set("tags", strings.Join(q.Tags, ","))
	}
	if q.Limit > 0 {
		params.Set("limit", strconv.Itoa(q.Limit))
	}

	var resp memory.SearchResult
	if err := c.do(ctx, http.MethodGet, "/memory/search", params, nil, &resp); err != nil {
		return nil, err
	}
	return nonNil(resp.Memories), nil
}

func (c *Client) List(ctx context.Context, limit, offset int) ([]*memory.Memory, int, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	var resp memory.ListResult
	if err := c.do(ctx, http.MethodGet, "/memory/list", params, nil, &resp); err != nil {
		return nil, 0, err
	}
	return nonNil(resp.Memories), resp.Total, nil
}

func (c *Client) Count(ctx context.Context) (int, error) {
	var resp memory.Stats
	if err := c.do(ctx, http.MethodGet, "/memory/stats", nil, nil, &resp); err != nil {
		return 0, err
	}
	return resp.TotalMemories, nil
}

func (c *Client) Backend() string {
	return memory.BackendRemote
}

func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	target := c.baseURL + path
	if len(params) > 0 {
		target += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return errors.Wrapf(err, "[remotestore] build %s %s", method, path)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("[remotestore] %s %s after %v: %w", method, path, c.timeout, apperrors.ErrTimeout)
		}
		return errors.Wrapf(err, "[remotestore] %s %s", method, path)
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		if isTimeout(ctx, err) {
			return fmt.Errorf("[remotestore] %s %s after %v: %w", method, path, c.timeout, apperrors.ErrTimeout)
		}
		return errors.Wrapf(err, "[remotestore] read %s %s", method, path)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return memory.ErrNotFound
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("[remotestore] %s %s rejected: %s: %w", method, path, strings.TrimSpace(string(data)), apperrors.ErrValidation)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return errors.Errorf("[remotestore] %s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "[remotestore] decode %s %s", method, path)
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func nonNil(ms []*memory.Memory) []*memory.Memory {
	if ms == nil {
		return []*memory.Memory{}
	}
	return ms
}
