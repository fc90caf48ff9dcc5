package wecom

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/wandering-ai/wecom-agent/pkg/slogx"
)

// DefaultLifetime applies until the vendor states an expires_in.
const DefaultLifetime = 7200 * time.Second

// TokenFetcher performs a single round trip to the token endpoint.
type TokenFetcher interface {
	FetchToken(ctx context.Context) (*TokenResponse, error)
}

// TokenFetcherFunc adapts a function to TokenFetcher.
type TokenFetcherFunc func(ctx context.Context) (*TokenResponse, error)

func (f TokenFetcherFunc) FetchToken(ctx context.Context) (*TokenResponse, error) { return f(ctx) }

// Credential is a point-in-time copy of the cached access token.
type Credential struct {
	Value    string
	IssuedAt time.Time
	Lifetime time.Duration
}

// ExpiresAt is IssuedAt plus Lifetime.
func (c Credential) ExpiresAt() time.Time { return c.IssuedAt.Add(c.Lifetime) }

// CredentialCache holds the agent's access token. Reads share a read lock;
// Refresh holds the write lock across the network fetch so at most one fetch
// is in flight and readers never see a half-written credential.
type CredentialCache struct {
	mu       sync.RWMutex
	value    string
	issuedAt time.Time
	lifetime time.Duration

	fetcher TokenFetcher
	now     func() time.Time
}

// NewCredentialCache returns an empty cache. The issue time starts at the Unix
// epoch so the first access always sees an expired credential. A nil now uses
// time.Now.
func NewCredentialCache(fetcher TokenFetcher, now func() time.Time) *CredentialCache {
	if now == nil {
		now = time.Now
	}
	return &CredentialCache{
		issuedAt: time.Unix(0, 0),
		lifetime: DefaultLifetime,
		fetcher:  fetcher,
		now:      now,
	}
}

// IsUsable reports whether a token is present and not yet expired.
func (c *CredentialCache) IsUsable() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.usableAt(c.now())
}

// ExpiresWithin reports whether a usable token has less than d left. It is
// false for a missing or already expired token.
func (c *CredentialCache) ExpiresWithin(d time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	return c.usableAt(now) && c.remainingAt(now) < d
}

// Value returns the cached token, expired or not, and whether one exists.
func (c *CredentialCache) Value() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value, c.value != ""
}

// Snapshot returns a consistent copy of the credential triple.
func (c *CredentialCache) Snapshot() Credential {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Credential{Value: c.value, IssuedAt: c.issuedAt, Lifetime: c.lifetime}
}

// Refresh fetches a new token unless the last successful fetch happened less
// than backoff ago, in which case it returns *RateLimitedError without any
// network call. On failure the previous credential is left untouched.
func (c *CredentialCache) Refresh(ctx context.Context, backoff time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := slogx.FromContext(ctx)

	// A negative elapsed time means the wall clock stepped back; do not lock
	// the caller out until it catches up.
	elapsed := c.now().Sub(c.issuedAt)
	if elapsed >= 0 && elapsed < backoff {
		return &RateLimitedError{Elapsed: elapsed, Backoff: backoff}
	}

	resp, err := c.fetcher.FetchToken(ctx)
	if err != nil {
		log.Warn("access token fetch failed", "error", err)
		return err
	}

	if resp.ErrCode != CodeOK {
		log.Warn("access token rejected", "errcode", resp.ErrCode, "errmsg", resp.ErrMsg)
		return &VendorError{Code: resp.ErrCode, Message: resp.ErrMsg}
	}
	if resp.AccessToken == "" {
		return &TransportError{Op: "fetch token", Err: errors.New("response carried no access_token")}
	}

	c.value = resp.AccessToken
	c.issuedAt = c.now()
	if resp.ExpiresIn > 0 {
		c.lifetime = time.Duration(resp.ExpiresIn) * time.Second
	}

	log.Info("access token refreshed", "expires_in", int64(c.lifetime/time.Second))
	return nil
}

// needsRefresh is the send-side trigger: missing, expired, or inside the
// proactive window. Evaluated under a single read lock.
func (c *CredentialCache) needsRefresh(window time.Duration) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	return !c.usableAt(now) || c.remainingAt(now) < window
}

// usableValue returns the token only while it is usable.
func (c *CredentialCache) usableValue() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.usableAt(c.now()) {
		return "", false
	}
	return c.value, true
}

// usableAt and remainingAt must be called with c.mu held.

func (c *CredentialCache) usableAt(now time.Time) bool {
	return c.value != "" && !c.expiredAt(now)
}

func (c *CredentialCache) expiredAt(now time.Time) bool {
	elapsed := now.Sub(c.issuedAt)
	return elapsed >= 0 && elapsed >= c.lifetime
}

func (c *CredentialCache) remainingAt(now time.Time) time.Duration {
	return c.lifetime - now.Sub(c.issuedAt)
}
