package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/wandering-ai/wecom-agent/pkg/slogx"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

// CredentialSource is the part of *wecom.Agent the warmer drives.
type CredentialSource interface {
	Credential() *wecom.CredentialCache
	RefreshCredential(ctx context.Context, backoff time.Duration) error
	ProactiveWindow() time.Duration
	Backoff() time.Duration
}

// CredentialWarmer keeps the agent's token refreshed ahead of traffic so
// sends rarely pay for a token fetch.
type CredentialWarmer struct {
	Agent    CredentialSource
	Logger   *slog.Logger
	Interval time.Duration

	// Timeout bounds each refresh attempt.
	Timeout time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	doneCh chan struct{}
}

// NewCredentialWarmer checks the token every interval (default 1 minute).
func NewCredentialWarmer(agent CredentialSource, logger *slog.Logger, interval time.Duration) *CredentialWarmer {
	if interval <= 0 {
		interval = time.Minute
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CredentialWarmer{
		Agent:    agent,
		Logger:   logger,
		Interval: interval,
		Timeout:  15 * time.Second,
		ctx:      ctx,
		cancel:   cancel,
		doneCh:   make(chan struct{}),
	}
}

// Start runs the warm loop in the background. The first check happens
// immediately.
func (w *CredentialWarmer) Start() {
	go w.run()
	w.Logger.Info("credential warmer started", "interval", w.Interval)
}

// Stop cancels any in-flight refresh and waits for the loop to exit.
func (w *CredentialWarmer) Stop() {
	w.cancel()
	<-w.doneCh
	w.Logger.Info("credential warmer stopped")
}

func (w *CredentialWarmer) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.Interval)
	defer ticker.Stop()

	w.Warm()

	for {
		select {
		case <-ticker.C:
			w.Warm()
		case <-w.ctx.Done():
			return
		}
	}
}

// Warm refreshes the token if it is missing, expired or inside the agent's
// proactive window. It reports whether a new token was fetched.
func (w *CredentialWarmer) Warm() bool {
	cache := w.Agent.Credential()
	if cache.IsUsable() && !cache.ExpiresWithin(w.Agent.ProactiveWindow()) {
		return false
	}

	ctx, cancel := context.WithTimeout(slogx.WithContext(w.ctx, w.Logger), w.Timeout)
	defer cancel()

	err := w.Agent.RefreshCredential(ctx, w.Agent.Backoff())
	switch {
	case err == nil:
		w.Logger.Debug("credential warmed", "expires_at", cache.Snapshot().ExpiresAt())
		return true
	case wecom.IsRateLimited(err):
		w.Logger.Debug("credential warm skipped", "reason", err)
	default:
		w.Logger.Error("credential warm failed", "error", err)
	}
	return false
}
