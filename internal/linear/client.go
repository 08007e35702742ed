package linear

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Khan/genqlient/graphql"
	"github.com/google/uuid"
	"github.com/vektah/gqlparser/v2/gqlerror"

	"github.com/andywolf/speclinear/internal/cloud/gcp"
)

const (
	// DefaultEndpoint is Linear's GraphQL endpoint.
	DefaultEndpoint = "https://api.linear.app/graphql"

	// TokenEnvVar supplies the API key when none is passed to New.
	TokenEnvVar = "LINEAR_TOKEN"

	DefaultTimeout = 30 * time.Second
)

// Logger receives one entry per GraphQL round trip. *gcp.CloudLogger satisfies it.
type Logger interface {
	Log(severity gcp.Severity, message string, fields map[string]interface{})
}

// Limiter paces outgoing requests. *security.RateLimiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context, key string) error
}

// Client executes GraphQL operations against Linear. It holds the credential,
// the HTTP connection pool and the lazily loaded team Config.
// A Client is safe for concurrent use and must be closed when no longer needed.
type Client struct {
	endpoint   string
	token      string
	timeout    time.Duration
	baseHTTP   *http.Client
	httpClient *http.Client
	gql        graphql.Client
	logger     Logger
	limiter    Limiter

	configPath string
	config     *Config
	configErr  error
	configOnce sync.Once

	mu     sync.Mutex
	closed bool
}

// Option configures a Client.
type Option func(*Client)

// WithToken sets the API key explicitly; it takes precedence over LINEAR_TOKEN.
func WithToken(token string) Option {
	return func(c *Client) {
		c.token = token
	}
}

// WithEndpoint overrides the GraphQL endpoint (useful for testing).
func WithEndpoint(url string) Option {
	return func(c *Client) {
		c.endpoint = url
	}
}

// WithHTTPClient uses client for transport. The client is copied, not modified;
// its Timeout is kept unless zero.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.baseHTTP = client
	}
}

// WithTimeout bounds every round trip. Defaults to 30s.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithConfig supplies an already loaded team Config.
func WithConfig(cfg *Config) Option {
	return func(c *Client) {
		c.config = cfg
	}
}

// WithConfigPath names a team config file loaded on first use of Config.
func WithConfigPath(path string) Option {
	return func(c *Client) {
		c.configPath = path
	}
}

// WithLogger sets the logger for request tracing.
func WithLogger(l Logger) Option {
	return func(c *Client) {
		c.logger = l
	}
}

// WithRateLimiter makes every Execute wait for budget from l, keyed by the
// endpoint.
func WithRateLimiter(l Limiter) Option {
	return func(c *Client) {
		c.limiter = l
	}
}

// New creates a Client. It fails with *ConfigurationError when no token is
// given and LINEAR_TOKEN is unset; no network activity happens here.
func New(opts ...Option) (*Client, error) {
	c := &Client{
		endpoint: DefaultEndpoint,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	if strings.TrimSpace(c.token) == "" {
		c.token = os.Getenv(TokenEnvVar)
	}
	c.token = strings.TrimSpace(c.token)
	if c.token == "" {
		return nil, &ConfigurationError{
			Message: TokenEnvVar + " is not set; create a personal API key under Linear Settings > API",
		}
	}

	hc := &http.Client{}
	if c.baseHTTP != nil {
		copied := *c.baseHTTP
		hc = &copied
	}
	if hc.Timeout == 0 {
		hc.Timeout = c.timeout
	}
	hc.Transport = &authedTransport{token: c.token, wrapped: hc.Transport}

	c.httpClient = hc
	c.gql = graphql.NewClient(c.endpoint, hc)
	return c, nil
}

// Config returns the team config, loading it from the configured path on the
// first call. It returns (nil, nil) when neither WithConfig nor WithConfigPath
// was given. The result, including a load error, is cached.
func (c *Client) Config() (*Config, error) {
	c.configOnce.Do(func() {
		if c.config != nil || c.configPath == "" {
			return
		}
		c.config, c.configErr = LoadConfig(c.configPath)
	})
	return c.config, c.configErr
}

// Close releases idle connections. It is safe to call more than once; Execute
// fails after Close.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return nil
	}
	c.closed = true
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) isClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

var operationNamePattern = regexp.MustCompile(`(?m)^\s*(?:query|mutation)\s+([_A-Za-z][_0-9A-Za-z]*)`)

func operationName(document string) string {
	if m := operationNamePattern.FindStringSubmatch(document); m != nil {
		return m[1]
	}
	return ""
}

// Execute sends one GraphQL document and returns the fields of the response's
// data object (an empty map when data is absent or null).
//
// A response carrying an errors array yields *APIError even when the array is
// empty or partial data is present. Network failures and non-2xx statuses
// yield *TransportError.
func (c *Client) Execute(ctx context.Context, document string, variables map[string]interface{}) (map[string]json.RawMessage, error) {
	if c.isClosed() {
		return nil, &TransportError{Err: ErrClientClosed}
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, c.endpoint); err != nil {
			return nil, &TransportError{Err: err}
		}
	}

	opName := operationName(document)
	requestID := uuid.NewString()

	req := &graphql.Request{
		Query:  document,
		OpName: opName,
	}
	if len(variables) > 0 {
		req.Variables = variables
	}

	var data json.RawMessage
	resp := &graphql.Response{Data: &data}

	body := &responseBody{}
	start := time.Now()
	err := c.gql.MakeRequest(withResponseBody(withRequestID(ctx, requestID), body), req, resp)
	if err == nil && body.hasErrorsKey() {
		err = append(gqlerror.List{}, resp.Errors...)
	}
	fields := map[string]interface{}{
		"operation":   opName,
		"request_id":  requestID,
		"duration_ms": time.Since(start).Milliseconds(),
	}

	if err != nil {
		err = classifyError(err)
		fields["error"] = err.Error()
		c.log(gcp.SeverityWarning, "graphql "+opName+" failed", fields)
		return nil, err
	}
	c.log(gcp.SeverityDebug, "graphql "+opName, fields)

	out := map[string]json.RawMessage{}
	if len(data) == 0 || string(data) == "null" {
		return out, nil
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, &MappingError{Field: "data", Value: truncate(string(data)), Err: err}
	}
	return out, nil
}

func classifyError(err error) error {
	var httpErr *graphql.HTTPError
	if errors.As(err, &httpErr) {
		te := &TransportError{StatusCode: httpErr.StatusCode, Err: err}
		// Linear answers some validation failures with 400 and a GraphQL body;
		// keep those messages reachable through errors.As.
		if httpErr.StatusCode == http.StatusBadRequest && len(httpErr.Response.Errors) > 0 {
			te.Err = newAPIError(httpErr.Response.Errors)
		}
		return te
	}

	var gqlErrs gqlerror.List
	if errors.As(err, &gqlErrs) {
		return newAPIError(gqlErrs)
	}

	return &TransportError{Err: err}
}

func (c *Client) log(severity gcp.Severity, msg string, fields map[string]interface{}) {
	if c.logger == nil {
		return
	}
	c.logger.Log(severity, msg, fields)
}

func truncate(s string) string {
	const limit = 200
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
