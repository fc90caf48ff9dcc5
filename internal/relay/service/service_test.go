package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/wandering-ai/wecom-agent/internal/relay/publisher"
	"github.com/wandering-ai/wecom-agent/internal/relay/store/drivers/sqlite"
	"github.com/wandering-ai/wecom-agent/pkg/wecom"
)

func newTestStore(t *testing.T) *sqlite.Store {
	t.Helper()

	st, err := sqlite.NewStore(filepath.Join(t.TempDir(), "relay.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	return st
}

type fakeSender struct {
	outcome *wecom.SendOutcome
	err     error

	mu       sync.Mutex
	payloads []any
}

func (f *fakeSender) Send(_ context.Context, payload any) (*wecom.SendOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.payloads = append(f.payloads, payload)
	if f.err != nil {
		return nil, f.err
	}
	out := *f.outcome
	return &out, nil
}

type recordingPublisher struct {
	events []*publisher.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev *publisher.Event) error {
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }
