package wecom

import (
	"context"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	// DefaultBaseURL is the public WeCom API root.
	DefaultBaseURL = "https://qyapi.weixin.qq.com/cgi-bin"

	// DefaultProactiveWindow is how long before expiry Send refreshes early.
	DefaultProactiveWindow = 300 * time.Second

	// DefaultBackoff is the minimum interval between token fetches made by Send.
	DefaultBackoff = 10 * time.Second
)

// Agent sends messages as one WeCom application. It is safe for concurrent
// use; the only shared mutable state is its CredentialCache.
type Agent struct {
	BaseURL    string
	HTTPClient *http.Client

	corpID string
	secret string

	proactiveWindow time.Duration
	backoff         time.Duration
	limiter         *rate.Limiter
	now             func() time.Time

	cache *CredentialCache
}

// Option configures an Agent.
type Option func(*Agent)

// WithBaseURL points the agent at a different API root, e.g. a private
// deployment or a test server.
func WithBaseURL(baseURL string) Option {
	return func(a *Agent) { a.BaseURL = strings.TrimSuffix(baseURL, "/") }
}

func WithHTTPClient(c *http.Client) Option {
	return func(a *Agent) { a.HTTPClient = c }
}

// WithProactiveWindow sets how close to expiry a token may get before Send
// refreshes it.
func WithProactiveWindow(d time.Duration) Option {
	return func(a *Agent) { a.proactiveWindow = d }
}

// WithBackoff sets the minimum interval between fetches triggered by Send.
func WithBackoff(d time.Duration) Option {
	return func(a *Agent) { a.backoff = d }
}

// WithSendLimiter makes every message POST wait on l first.
func WithSendLimiter(l *rate.Limiter) Option {
	return func(a *Agent) { a.limiter = l }
}

// WithClock replaces time.Now for credential bookkeeping.
func WithClock(now func() time.Time) Option {
	return func(a *Agent) { a.now = now }
}

// NewAgent creates an agent for the given corp id and application secret.
// No network call is made; the first token is fetched on demand.
func NewAgent(corpID, secret string, opts ...Option) *Agent {
	a := &Agent{
		BaseURL: DefaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		corpID:          corpID,
		secret:          secret,
		proactiveWindow: DefaultProactiveWindow,
		backoff:         DefaultBackoff,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.cache = NewCredentialCache(TokenFetcherFunc(a.fetchToken), a.now)
	return a
}

// CorpID returns the corp id the agent authenticates as.
func (a *Agent) CorpID() string { return a.corpID }

// Credential exposes the agent's token cache for inspection.
func (a *Agent) Credential() *CredentialCache { return a.cache }

// ProactiveWindow returns the configured early-refresh lead time.
func (a *Agent) ProactiveWindow() time.Duration { return a.proactiveWindow }

// Backoff returns the minimum fetch interval used by Send.
func (a *Agent) Backoff() time.Duration { return a.backoff }

// RefreshCredential fetches a new token now, subject to backoff. Use it to
// warm the cache before the first Send.
func (a *Agent) RefreshCredential(ctx context.Context, backoff time.Duration) error {
	return a.cache.Refresh(ctx, backoff)
}
