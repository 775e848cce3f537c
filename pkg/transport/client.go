// Package transport talks to a json-server compatible REST collection:
// GET/POST on the collection and GET/PUT/DELETE on collection/{id}.
package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/goliatone/go-formcrud/pkg/model"
	"github.com/goliatone/go-formcrud/pkg/record"
)

// Transport is the boundary the store persists through.
type Transport interface {
	List(ctx context.Context) ([]record.Record, error)
	Get(ctx context.Context, id string) (record.Record, error)
	Create(ctx context.Context, rec record.Record) (record.Record, error)
	Update(ctx context.Context, id string, rec record.Record) (record.Record, error)
	Delete(ctx context.Context, id string) error
}

// maxErrorBody bounds how much of an error response is read.
const maxErrorBody = 1 << 20

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient swaps the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(logger *log.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Add(key, value)
		}
	}
}

// Client implements Transport over HTTP.
type Client struct {
	collection string
	schema     model.Schema
	http       *http.Client
	logger     *log.Logger
	headers    http.Header
}

var _ Transport = (*Client)(nil)

// NewClient targets <baseURL>/<schema.Resource>.
func NewClient(baseURL string, schema model.Schema, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return nil, fmt.Errorf("transport: parse base url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("transport: base url %q must use http or https", baseURL)
	}
	if strings.TrimSpace(schema.Resource) == "" {
		return nil, errors.New("transport: schema resource is required")
	}

	c := &Client{
		collection: strings.TrimRight(parsed.String(), "/") + "/" + url.PathEscape(schema.Resource),
		schema:     schema,
		http:       http.DefaultClient,
		logger:     log.New(io.Discard),
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// CollectionURL returns the collection endpoint.
func (c *Client) CollectionURL() string {
	return c.collection
}

func (c *Client) List(ctx context.Context) ([]record.Record, error) {
	body, err := c.do(ctx, OpList, http.MethodGet, c.collection, nil)
	if err != nil {
		return nil, err
	}
	records, err := record.DecodeList(c.schema, body)
	if err != nil {
		return nil, c.failure(OpList, 0, err)
	}
	return records, nil
}

func (c *Client) Get(ctx context.Context, id string) (record.Record, error) {
	return c.roundTrip(ctx, OpGet, http.MethodGet, c.itemURL(id), nil)
}

// Create posts rec without its id and returns the stored record.
func (c *Client) Create(ctx context.Context, rec record.Record) (record.Record, error) {
	payload, err := record.Encode(rec, false)
	if err != nil {
		return record.Record{}, c.failure(OpCreate, 0, err)
	}
	return c.roundTrip(ctx, OpCreate, http.MethodPost, c.collection, payload)
}

// Update replaces the record with id.
func (c *Client) Update(ctx context.Context, id string, rec record.Record) (record.Record, error) {
	payload, err := record.Encode(rec, false)
	if err != nil {
		return record.Record{}, c.failure(OpUpdate, 0, err)
	}
	return c.roundTrip(ctx, OpUpdate, http.MethodPut, c.itemURL(id), payload)
}

func (c *Client) Delete(ctx context.Context, id string) error {
	_, err := c.do(ctx, OpDelete, http.MethodDelete, c.itemURL(id), nil)
	return err
}

func (c *Client) itemURL(id string) string {
	return c.collection + "/" + url.PathEscape(id)
}

func (c *Client) roundTrip(ctx context.Context, op Op, method, target string, payload []byte) (record.Record, error) {
	body, err := c.do(ctx, op, method, target, payload)
	if err != nil {
		return record.Record{}, err
	}
	rec, err := record.Decode(c.schema, body)
	if err != nil {
		return record.Record{}, c.failure(op, 0, err)
	}
	return rec, nil
}

func (c *Client) do(ctx context.Context, op Op, method, target string, payload []byte) ([]byte, error) {
	if ctx == nil {
		return nil, errors.New("transport: context is required")
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, c.failure(op, 0, err)
	}
	for key, values := range c.headers {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	c.logger.Debug("request", "op", op, "method", method, "url", target)
	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.Warn("request failed", "op", op, "err", err)
		return nil, c.failure(op, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		failure := c.failure(op, resp.StatusCode, nil)
		c.applyErrorPayload(failure, raw)
		c.logger.Warn("request rejected", "op", op, "status", resp.StatusCode)
		return nil, failure
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.failure(op, resp.StatusCode, err)
	}
	c.logger.Debug("response", "op", op, "status", resp.StatusCode, "bytes", len(body))
	return body, nil
}

func (c *Client) failure(op Op, status int, cause error) *Error {
	return &Error{
		Op:      op,
		Status:  status,
		Message: FailureMessage(c.schema, op),
		Err:     cause,
	}
}

// errorPayload accepts {"errors": {"path": ["msg"]}} with string or list
// values, plus an optional top-level "message".
type errorPayload struct {
	Message string                     `json:"message"`
	Errors  map[string]json.RawMessage `json:"errors"`
}

func (c *Client) applyErrorPayload(target *Error, raw []byte) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return
	}
	var payload errorPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return
	}

	messages := make(map[string][]string, len(payload.Errors))
	for path, value := range payload.Errors {
		var list []string
		if err := json.Unmarshal(value, &list); err == nil {
			messages[path] = list
			continue
		}
		var single string
		if err := json.Unmarshal(value, &single); err == nil {
			messages[path] = []string{single}
		}
	}

	mapping := MapErrorPayload(c.schema, messages)
	target.Fields = mapping.Fields
	target.Form = mapping.Form
	if msg := strings.TrimSpace(payload.Message); msg != "" {
		target.Form = normalizeMessages(append([]string{msg}, target.Form...))
	}
}
