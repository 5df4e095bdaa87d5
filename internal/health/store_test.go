package health

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/events"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	mu      sync.Mutex
	summary api.HealthSummary
	nodes   []api.NodeHealth
	err     error
	release chan struct{} // when set, fetches block until closed
}

func (f *fakeFetcher) ClusterHealthSummary(ctx context.Context) (api.HealthSummary, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.summary, f.err
}

func (f *fakeFetcher) NodeHealth(ctx context.Context) ([]api.NodeHealth, error) {
	f.wait(ctx)
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.nodes, f.err
}

func (f *fakeFetcher) wait(ctx context.Context) {
	f.mu.Lock()
	release := f.release
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
		}
	}
}

type fakeSubscriber struct {
	mu       sync.Mutex
	handlers map[string][]events.Handler
}

func newFakeSubscriber() *fakeSubscriber {
	return &fakeSubscriber{handlers: make(map[string][]events.Handler)}
}

func (s *fakeSubscriber) Subscribe(topic string, handler events.Handler) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[topic] = append(s.handlers[topic], handler)
	return func() {}
}

func (s *fakeSubscriber) publish(t *testing.T, topic string, payload any) {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)

	s.mu.Lock()
	handlers := append([]events.Handler(nil), s.handlers[topic]...)
	s.mu.Unlock()
	for _, h := range handlers {
		h(events.Message{Topic: topic, Data: data})
	}
}

func waitForSnapshot(t *testing.T, s *Store, cond func(Snapshot) bool) Snapshot {
	t.Helper()
	var snap Snapshot
	require.Eventually(t, func() bool {
		snap = s.Snapshot()
		return cond(snap)
	}, time.Second, 5*time.Millisecond)
	return snap
}

func TestStoreInitialFetchPopulates(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	fetcher := &fakeFetcher{
		summary: api.HealthSummary{Online: 2, Total: 3, UpdatedAt: now},
		nodes: []api.NodeHealth{
			{Id: 1, Name: "den", Status: api.StatusOnline, LatencyMs: 12},
			{Id: 2, Name: "attic", Status: api.StatusOffline, LastErr: "connection refused"},
		},
	}
	sub := newFakeSubscriber()

	store := NewStore(fetcher, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	snap := waitForSnapshot(t, store, func(s Snapshot) bool { return s.Summary != nil && len(s.Nodes) == 2 })

	assert.Equal(t, 2, snap.Summary.Online)
	assert.Equal(t, 3, snap.Summary.Total)
	assert.True(t, snap.SummaryFresh)
	assert.True(t, snap.NodesFresh)
	assert.Equal(t, "den", snap.NodesById[1].Name)
	assert.Equal(t, "attic", snap.NodesById[2].Name)
}

func TestStoreSubscribesToBothTopics(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(&fakeFetcher{}, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	sub.mu.Lock()
	defer sub.mu.Unlock()
	assert.Len(t, sub.handlers[TopicHealthSummary], 1)
	assert.Len(t, sub.handlers[TopicNodeHealth], 1)
}

func TestStorePushReplacesWholesale(t *testing.T) {
	fetcher := &fakeFetcher{
		nodes: []api.NodeHealth{{Id: 1, Name: "den", Status: api.StatusOnline}},
	}
	sub := newFakeSubscriber()
	store := NewStore(fetcher, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	waitForSnapshot(t, store, func(s Snapshot) bool { return len(s.Nodes) == 1 })

	sub.publish(t, TopicNodeHealth, []api.NodeHealth{
		{Id: 2, Name: "attic", Status: api.StatusDegraded, LatencyMs: 80},
	})

	snap := store.Snapshot()
	require.Len(t, snap.Nodes, 1, "push replaces the previous list, it does not merge")
	assert.Equal(t, int64(2), snap.Nodes[0].Id)
	_, stillThere := snap.NodesById[1]
	assert.False(t, stillThere, "lookup map is rebuilt from the new list")
}

func TestStoreSummaryPush(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(&fakeFetcher{err: errors.New("boom")}, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	sub.publish(t, TopicHealthSummary, api.HealthSummary{Online: 4, Total: 4, UpdatedAt: time.Now()})

	snap := waitForSnapshot(t, store, func(s Snapshot) bool { return s.Summary != nil })
	assert.Equal(t, 4, snap.Summary.Online)
	assert.True(t, snap.SummaryFresh)
}

func TestStoreFailedInitialFetchIsSwallowed(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(&fakeFetcher{err: errors.New("boom")}, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	time.Sleep(20 * time.Millisecond)
	snap := store.Snapshot()
	assert.Nil(t, snap.Summary)
	assert.Empty(t, snap.Nodes)
	assert.False(t, snap.SummaryFresh)
	assert.False(t, snap.NodesFresh)
}

func TestStoreLateFetchDoesNotOverwritePush(t *testing.T) {
	release := make(chan struct{})
	fetcher := &fakeFetcher{
		nodes:   []api.NodeHealth{{Id: 1, Name: "stale-fetch"}},
		release: release,
	}
	sub := newFakeSubscriber()
	store := NewStore(fetcher, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	// A push lands while the initial fetch is still in flight.
	sub.publish(t, TopicNodeHealth, []api.NodeHealth{{Id: 9, Name: "fresh-push"}})
	close(release)

	time.Sleep(20 * time.Millisecond)
	snap := store.Snapshot()
	require.Len(t, snap.Nodes, 1)
	assert.Equal(t, "fresh-push", snap.Nodes[0].Name, "the older fetch result must not clobber newer push data")
}

func TestStoreCancelledFetchDiscarded(t *testing.T) {
	release := make(chan struct{})
	fetcher := &fakeFetcher{
		nodes:   []api.NodeHealth{{Id: 1}},
		release: release,
	}
	sub := newFakeSubscriber()
	store := NewStore(fetcher, sub, 20*time.Second, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	store.Start(ctx)
	defer store.Stop()

	cancel()
	close(release)

	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, store.Snapshot().Nodes)
}

func TestStoreChangedSignals(t *testing.T) {
	sub := newFakeSubscriber()
	store := NewStore(&fakeFetcher{err: errors.New("no initial data")}, sub, 20*time.Second, zerolog.Nop())
	store.Start(context.Background())
	defer store.Stop()

	sub.publish(t, TopicNodeHealth, []api.NodeHealth{{Id: 1}})

	select {
	case <-store.Changed():
	case <-time.After(time.Second):
		t.Fatal("expected a change notification after a push update")
	}
}
