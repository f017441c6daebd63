// Package rest talks to a hosted PostgREST-style backend: properties are read
// with query-string filters and tickets are inserted into a feedback table.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/hearth/pkg/domain"
	"github.com/mitchellh/mapstructure"
)

const (
	// DefaultPropertiesTable is the resource searched for listings.
	DefaultPropertiesTable = "properties"
	// DefaultTicketsTable is the resource support tickets are inserted into.
	DefaultTicketsTable = "feedback"

	defaultHTTPTimeout = 30 * time.Second
	maxErrorBody       = 4096
)

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	Method string
	Path   string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Code)
	}
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Code, e.Body)
}

// Client implements ports.Searcher and ports.TicketSubmitter over HTTP.
type Client struct {
	baseURL    *url.URL
	apiKey     string
	http       *http.Client
	properties string
	tickets    string
}

// Option configures the Client.
type Option func(*Client)

// WithAPIKey sends key as the apikey header and bearer token.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.http = hc
	}
}

// WithTables overrides the resource names.
func WithTables(properties, tickets string) Option {
	return func(c *Client) {
		if properties != "" {
			c.properties = properties
		}
		if tickets != "" {
			c.tickets = tickets
		}
	}
}

// New creates a client for the REST root at baseURL (e.g. https://x.supabase.co/rest/v1).
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("invalid backend url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid backend url %q: scheme must be http or https", baseURL)
	}

	c := &Client{
		baseURL:    u,
		http:       &http.Client{Timeout: defaultHTTPTimeout},
		properties: DefaultPropertiesTable,
		tickets:    DefaultTicketsTable,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Search lists the properties matching req.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) ([]domain.PropertySummary, error) {
	q := url.Values{}
	q.Set("select", "id,title,type,city,price,amenities")
	if req.Type != "" {
		q.Set("type", "eq."+req.Type)
	}
	if req.City != "" {
		q.Set("city", "eq."+req.City)
	}
	if req.PriceMin != nil {
		q.Add("price", "gte."+strconv.Itoa(*req.PriceMin))
	}
	if req.PriceMax != nil {
		q.Add("price", "lte."+strconv.Itoa(*req.PriceMax))
	}
	if len(req.Amenities) > 0 {
		q.Set("amenities", "cs.{"+strings.Join(req.Amenities, ",")+"}")
	}
	q.Set("order", "price.asc")

	var rows []map[string]any
	if err := c.do(ctx, http.MethodGet, c.properties, q, nil, &rows); err != nil {
		return nil, err
	}
	return DecodeProperties(rows)
}

// Submit inserts the ticket.
func (c *Client) Submit(ctx context.Context, ticket domain.Ticket) error {
	return c.do(ctx, http.MethodPost, c.tickets, nil, ticket, nil)
}

// DecodeProperties converts loosely typed rows into summaries.
// Numbers and strings are converted into each other where needed.
// A fractional number bound for an integer field is a decode error.
func DecodeProperties(rows []map[string]any) ([]domain.PropertySummary, error) {
	out := make([]domain.PropertySummary, 0, len(rows))
	for i, row := range rows {
		var p domain.PropertySummary
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			WeaklyTypedInput: true,
			DecodeHook:       rejectFractions,
			Result:           &p,
		})
		if err != nil {
			return nil, err
		}
		if err := dec.Decode(row); err != nil {
			return nil, fmt.Errorf("failed to decode property row %d: %w", i, err)
		}
		out = append(out, p)
	}
	return out, nil
}

// rejectFractions stops the weak decoder from truncating 4999.5 into 4999.
func rejectFractions(from, to reflect.Type, data any) (any, error) {
	switch from.Kind() {
	case reflect.Float32, reflect.Float64:
	default:
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
	default:
		return data, nil
	}
	f := reflect.ValueOf(data).Float()
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("%v is not a whole number", f)
	}
	return data, nil
}

func (c *Client) do(ctx context.Context, method, resource string, query url.Values, body, result any) error {
	u := c.baseURL.JoinPath(resource)
	if query != nil {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Prefer", "return=minimal")
	}
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, resource, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{Method: method, Path: resource, Code: resp.StatusCode, Body: strings.TrimSpace(string(msg))}
	}
	if result == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", resource, err)
	}
	return nil
}
