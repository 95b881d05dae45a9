// Package graphql runs GraphQL operations over HTTP through the genqlient
// runtime client. Queries are plain strings; responses decode into caller
// supplied structs. Session tokens issued by the server through a response
// header are captured and replayed as bearer credentials on later requests
// of the same Session.
package graphql

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	genql "github.com/Khan/genqlient/graphql"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/vektah/gqlparser/v2/gqlerror"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	"github.com/uniclima/storefront/pkg/httpclient"
)

const (
	tracerName = "github.com/uniclima/storefront/pkg/graphql"

	// DefaultAuthTokenHeader is the response header Vendure uses to hand out
	// session tokens in bearer mode.
	DefaultAuthTokenHeader = "vendure-auth-token"
	// DefaultChannelTokenHeader selects the channel on multi-channel servers.
	DefaultChannelTokenHeader = "vendure-token"

	maxResponseBytes = 16 << 20
	maxErrorBytes    = 1 << 20
)

var requestDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "graphql_client_request_duration_seconds",
		Help:    "Duration of outgoing GraphQL operations",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"endpoint", "operation", "outcome"},
)

var operationPattern = regexp.MustCompile(`^\s*(query|mutation)\s+([_A-Za-z][_0-9A-Za-z]*)`)

// Request is the JSON body of a GraphQL HTTP request as a server decodes
// it. Outgoing requests are encoded by genqlient in the same shape.
type Request struct {
	Query         string         `json:"query"`
	Variables     map[string]any `json:"variables,omitempty"`
	OperationName string         `json:"operationName,omitempty"`
}

// Client sends GraphQL operations to a single endpoint.
type Client struct {
	doer         httpclient.Doer
	endpoint     string
	name         string
	channelToken string
	languageCode string
	logger       *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithChannelToken sends token in the vendure-token header on every request.
func WithChannelToken(token string) Option {
	return func(c *Client) { c.channelToken = token }
}

// WithLanguageCode appends ?languageCode=code to the endpoint so translated
// fields resolve in that language.
func WithLanguageCode(code string) Option {
	return func(c *Client) { c.languageCode = code }
}

// WithName labels metrics, spans and errors for this endpoint.
func WithName(name string) Option {
	return func(c *Client) { c.name = name }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a client posting to endpoint through doer.
func New(doer httpclient.Doer, endpoint string, opts ...Option) *Client {
	c := &Client{
		doer:     doer,
		endpoint: endpoint,
		name:     "graphql",
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the configured endpoint URL.
func (c *Client) Endpoint() string { return c.endpoint }

// Query runs a read operation. Transient failures are retried by the
// underlying HTTP client.
func (c *Client) Query(ctx context.Context, query string, vars map[string]any, out any) error {
	return c.do(ctx, query, vars, out)
}

// Mutate runs a write operation exactly once.
func (c *Client) Mutate(ctx context.Context, query string, vars map[string]any, out any) error {
	return c.do(httpclient.WithoutRetry(ctx), query, vars, out)
}

func (c *Client) do(ctx context.Context, query string, vars map[string]any, out any) (err error) {
	op := OperationName(query)
	start := time.Now()

	ctx, span := otel.Tracer(tracerName).Start(ctx, "graphql "+op,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("graphql.operation.name", op),
			attribute.String("peer.service", c.name),
		),
	)
	defer func() {
		outcome := "ok"
		if err != nil {
			outcome = "error"
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		requestDuration.WithLabelValues(c.name, op, outcome).Observe(time.Since(start).Seconds())
	}()

	target, err := c.url()
	if err != nil {
		return err
	}

	req := &genql.Request{Query: query, OpName: operationNameOrEmpty(op)}
	if len(vars) > 0 {
		req.Variables = vars
	}
	// genqlient decodes data into whatever Data points at.
	resp := &genql.Response{Data: out}

	gql := genql.NewClient(target, &transport{client: c, session: SessionFromContext(ctx)})
	if err := gql.MakeRequest(ctx, req, resp); err != nil {
		return c.operationError(op, err)
	}

	c.logger.DebugContext(ctx, "graphql operation completed",
		slog.String("endpoint", c.name),
		slog.String("operation", op),
		slog.Duration("duration", time.Since(start)),
	)
	return nil
}

// operationError maps what MakeRequest returned onto the package's error
// types. Transport errors, including AppErrors from the doer, stay
// reachable through errors.Is and errors.As.
func (c *Client) operationError(op string, err error) error {
	var list gqlerror.List
	if errors.As(err, &list) {
		return &Error{Operation: op, StatusCode: http.StatusOK, Messages: messages(list)}
	}
	var httpErr *genql.HTTPError
	if errors.As(err, &httpErr) {
		return &Error{Operation: op, StatusCode: httpErr.StatusCode, Messages: messages(httpErr.Response.Errors)}
	}
	return fmt.Errorf("%s %s: %w", c.name, op, err)
}

// transport adapts the retrying doer to genqlient. It adds the Vendure
// headers to every request and keeps the session token current.
type transport struct {
	client  *Client
	session *Session
}

func (t *transport) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req.Header.Set("Accept", "application/json")
	if t.client.channelToken != "" {
		req.Header.Set(DefaultChannelTokenHeader, t.client.channelToken)
	}
	if tok := t.session.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := t.client.doer.Do(ctx, req)
	if err != nil {
		return nil, err
	}
	if tok := resp.Header.Get(DefaultAuthTokenHeader); tok != "" {
		t.session.SetToken(tok)
	}

	if resp.StatusCode == http.StatusOK {
		resp.Body = limitedBody{Reader: io.LimitReader(resp.Body, maxResponseBytes), Closer: resp.Body}
		return resp, nil
	}
	return t.client.statusResponse(resp)
}

type limitedBody struct {
	io.Reader
	io.Closer
}

// statusResponse handles a non-200 answer. GraphQL servers often reply to
// malformed operations with 400 and a regular errors array; that response
// is handed back so genqlient reports the errors. Anything else goes
// through httpclient.ParseResponseError.
func (c *Client) statusResponse(resp *http.Response) (*http.Response, error) {
	raw, readErr := io.ReadAll(io.LimitReader(resp.Body, maxErrorBytes))
	_ = resp.Body.Close()
	resp.Body = io.NopCloser(bytes.NewReader(raw))
	if readErr == nil {
		var payload struct {
			Errors []json.RawMessage `json:"errors"`
		}
		if json.Unmarshal(raw, &payload) == nil && len(payload.Errors) > 0 {
			return resp, nil
		}
	}
	return nil, httpclient.ParseResponseError(resp, c.name)
}

func (c *Client) url() (string, error) {
	if c.languageCode == "" {
		return c.endpoint, nil
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", fmt.Errorf("%s: parse endpoint: %w", c.name, err)
	}
	q := u.Query()
	q.Set("languageCode", c.languageCode)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// OperationName returns the declared name of the first operation in query,
// or "anonymous".
func OperationName(query string) string {
	m := operationPattern.FindStringSubmatch(query)
	if m == nil {
		return "anonymous"
	}
	return m[2]
}

func operationNameOrEmpty(op string) string {
	if op == "anonymous" {
		return ""
	}
	return op
}

// Message is a single entry of a GraphQL errors array.
type Message struct {
	Message    string
	Path       string
	Extensions map[string]any
}

func messages(list gqlerror.List) []Message {
	out := make([]Message, 0, len(list))
	for _, e := range list {
		if e == nil {
			continue
		}
		m := Message{Message: e.Message, Extensions: e.Extensions}
		if len(e.Path) > 0 {
			m.Path = e.Path.String()
		}
		out = append(out, m)
	}
	return out
}

// Code returns extensions.code when the server set one.
func (m Message) Code() string {
	if c, ok := m.Extensions["code"].(string); ok {
		return c
	}
	return ""
}

// Error is returned when the server answered with a non-empty errors array.
type Error struct {
	Operation  string
	StatusCode int
	Messages   []Message
}

func (e *Error) Error() string {
	msgs := make([]string, 0, len(e.Messages))
	for _, m := range e.Messages {
		msgs = append(msgs, m.Message)
	}
	return fmt.Sprintf("graphql %s: %s", e.Operation, strings.Join(msgs, "; "))
}

// Code returns the extensions code of the first message.
func (e *Error) Code() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[0].Code()
}

// Forbidden reports whether the server rejected the call for missing or
// insufficient credentials.
func (e *Error) Forbidden() bool {
	return e.Code() == "FORBIDDEN"
}
