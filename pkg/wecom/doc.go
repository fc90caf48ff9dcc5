/*
Package wecom is a client for sending WeCom (enterprise WeChat) application
messages.

# Overview

An Agent authenticates with a corp id and an application secret, caches the
short-lived access token the vendor issues, and posts messages with it:

	agent := wecom.NewAgent(corpID, secret)

	msg, err := message.NewBuilder().
		ToUsers("robin", "tom").
		FromAgent(1000002).
		Build(message.Text{Content: "deploy finished"})

	outcome, err := agent.Send(ctx, msg)
	if err != nil {
		// *RateLimitedError, *VendorError (token endpoint) or *TransportError
	}
	if !outcome.OK() {
		// the vendor refused the message; outcome.ErrCode says why
	}

NewAgent never touches the network. The first Send fetches a token.

# Token Lifecycle

The token lives in a CredentialCache. Send refreshes it before posting when it
is missing, expired, or within the proactive window (300 seconds by default)
of expiring. Refreshes are spaced by a backoff (10 seconds by default) measured
from the last successful fetch; an early refresh fails with *RateLimitedError
and makes no request.

If the vendor answers a send with errcode 40014 the token was revoked early.
Send then refreshes once and retries the POST once with the new token. A
second rejection is returned as-is.

Call RefreshCredential to warm the cache ahead of traffic:

	if err := agent.RefreshCredential(ctx, wecom.DefaultBackoff); err != nil {
		return err
	}

# Thread Safety

Agent is safe for concurrent use. Token reads share a read lock; a refresh
holds the write lock for the whole fetch, so only one fetch is ever in flight
and readers see either the old or the new token.

# Logging

The package logs through slogx.FromContext, so a logger attached to ctx
receives token refresh and rejection events. Tokens and secrets are never
logged and are stripped from transport errors.
*/
package wecom
