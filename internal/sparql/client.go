package sparql

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
)

const (
	resultsContentType = "application/sparql-results+json"
	maxErrorBodyLen    = 512
)

// Binding is one row of a SELECT result, keyed by variable name. Only the
// lexical value of each bound term is kept.
type Binding map[string]string

// Client executes SPARQL 1.1 queries and updates against a single endpoint
// using the SPARQL protocol over HTTP POST.
type Client struct {
	http     *resty.Client
	endpoint string
}

// Option configures a Client.
type Option func(*Client)

// WithHeaders adds headers sent with every request (e.g. "mu-auth-sudo: true").
func WithHeaders(headers map[string]string) Option {
	return func(c *Client) { c.http.SetHeaders(headers) }
}

// WithTimeout sets the per-request timeout. Zero means no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.SetTimeout(d)
		}
	}
}

// WithRestyClient replaces the underlying HTTP client (useful for testing).
func WithRestyClient(rc *resty.Client) Option {
	return func(c *Client) { c.http = rc }
}

// NewClient creates a Client for the given endpoint URL. The endpoint must be
// an absolute http(s) URL; no request is made until the first operation.
func NewClient(endpoint string, opts ...Option) (*Client, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEndpoint, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("%w: %q is not an absolute http(s) URL", ErrInvalidEndpoint, endpoint)
	}

	c := &Client{
		http:     resty.New(),
		endpoint: endpoint,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Endpoint returns the endpoint URL the client talks to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Ask runs an ASK query and returns its boolean result.
func (c *Client) Ask(ctx context.Context, query string) (bool, error) {
	body, err := c.post(ctx, "query", query)
	if err != nil {
		return false, err
	}

	res := gjson.GetBytes(body, "boolean")
	if !res.Exists() {
		return false, fmt.Errorf("%w: ASK result has no boolean", ErrMalformedResponse)
	}

	return res.Bool(), nil
}

// Select runs a SELECT query and returns its bindings in result order.
func (c *Client) Select(ctx context.Context, query string) ([]Binding, error) {
	body, err := c.post(ctx, "query", query)
	if err != nil {
		return nil, err
	}

	return parseBindings(body)
}

// Update runs a SPARQL update.
func (c *Client) Update(ctx context.Context, update string) error {
	_, err := c.post(ctx, "update", update)

	return err
}

// InsertData inserts N-Triples statements (each terminated by " .") into graph.
func (c *Client) InsertData(ctx context.Context, graph string, statements []string) error {
	var b strings.Builder

	b.WriteString("INSERT DATA {\n  GRAPH ")
	b.WriteString(IRI(graph))
	b.WriteString(" {\n")

	for _, s := range statements {
		b.WriteString("    ")
		b.WriteString(s)
		b.WriteByte('\n')
	}

	b.WriteString("  }\n}")

	if err := c.Update(ctx, b.String()); err != nil {
		return fmt.Errorf("inserting %d statements into %s: %w", len(statements), graph, err)
	}

	return nil
}

// AddGraph copies every triple of src into dst in a single update.
func (c *Client) AddGraph(ctx context.Context, src, dst string) error {
	if err := c.Update(ctx, "ADD "+IRI(src)+" TO "+IRI(dst)); err != nil {
		return fmt.Errorf("adding graph %s to %s: %w", src, dst, err)
	}

	return nil
}

// DropGraph removes graph. Dropping a graph that does not exist is not an error.
func (c *Client) DropGraph(ctx context.Context, graph string) error {
	if err := c.Update(ctx, "DROP SILENT GRAPH "+IRI(graph)); err != nil {
		return fmt.Errorf("dropping graph %s: %w", graph, err)
	}

	return nil
}

// Ping issues a trivial ASK query to verify the endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Ask(ctx, "ASK { ?s ?p ?o }")

	return err
}

func (c *Client) post(ctx context.Context, param, text string) ([]byte, error) {
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Accept", resultsContentType).
		SetFormData(map[string]string{param: text}).
		Post(c.endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	if !resp.IsSuccess() {
		return nil, fmt.Errorf("%w: status %d: %s",
			ErrRequestFailed, resp.StatusCode(), truncate(resp.String(), maxErrorBodyLen))
	}

	return resp.Body(), nil
}

func parseBindings(body []byte) ([]Binding, error) {
	if !gjson.ValidBytes(body) {
		return nil, fmt.Errorf("%w: body is not JSON", ErrMalformedResponse)
	}

	rows := gjson.GetBytes(body, "results.bindings")
	if !rows.IsArray() {
		return nil, fmt.Errorf("%w: SELECT result has no bindings", ErrMalformedResponse)
	}

	out := make([]Binding, 0, len(rows.Array()))

	rows.ForEach(func(_, row gjson.Result) bool {
		b := make(Binding)

		row.ForEach(func(name, term gjson.Result) bool {
			b[name.String()] = term.Get("value").String()
			return true
		})

		out = append(out, b)

		return true
	})

	return out, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}

	cut := maxLen - 3
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}

	return s[:cut] + "..."
}
