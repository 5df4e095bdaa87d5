package health

import (
	"context"
	"sync"
	"time"

	"github.com/auto-dns/pihole-cluster-admin/internal/api"
	"github.com/auto-dns/pihole-cluster-admin/internal/events"
	"github.com/rs/zerolog"
)

const (
	TopicHealthSummary = "health_summary"
	TopicNodeHealth    = "node_health"

	// The server pushes roughly every 10 seconds; data is trusted for twice
	// that before the dashboard downgrades it to stale.
	DefaultPushInterval = 10 * time.Second
)

// FreshWindow derives the freshness window from the nominal push interval.
func FreshWindow(pushInterval time.Duration) time.Duration {
	return 2 * pushInterval
}

type fetcher interface {
	ClusterHealthSummary(ctx context.Context) (api.HealthSummary, error)
	NodeHealth(ctx context.Context) ([]api.NodeHealth, error)
}

type subscriber interface {
	Subscribe(topic string, handler events.Handler) func()
}

// Snapshot is a point-in-time read of the aggregated cluster health. Summary
// and per-node data travel on independent paths and may disagree for up to
// one push cycle.
type Snapshot struct {
	Summary      *api.HealthSummary
	SummaryFresh bool
	Nodes        []api.NodeHealth
	NodesById    map[int64]api.NodeHealth
	NodesFresh   bool
}

// Store composes a one-time REST fetch with ongoing push updates into a
// consistent read model. Push payloads replace the previous state wholesale;
// the id-keyed lookup map is rebuilt on every change.
type Store struct {
	fetcher    fetcher
	subscriber subscriber
	logger     zerolog.Logger

	mu        sync.RWMutex
	summary   *api.HealthSummary
	nodes     []api.NodeHealth
	nodesById map[int64]api.NodeHealth

	summaryFresh *Freshness
	nodesFresh   *Freshness

	changed       chan struct{}
	unsubscribers []func()
}

func NewStore(fetcher fetcher, subscriber subscriber, window time.Duration, logger zerolog.Logger) *Store {
	s := &Store{
		fetcher:    fetcher,
		subscriber: subscriber,
		logger:     logger,
		nodesById:  make(map[int64]api.NodeHealth),
		changed:    make(chan struct{}, 1),
	}
	s.summaryFresh = NewFreshness(window, func(bool) { s.poke() })
	s.nodesFresh = NewFreshness(window, func(bool) { s.poke() })
	return s
}

// Start subscribes to live updates and kicks off the initial fetch. The two
// initial requests run concurrently; their failures are logged and swallowed
// so "no data yet" is what the consumer sees.
func (s *Store) Start(ctx context.Context) {
	s.unsubscribers = append(s.unsubscribers,
		s.subscriber.Subscribe(TopicHealthSummary, s.onSummaryMessage),
		s.subscriber.Subscribe(TopicNodeHealth, s.onNodeHealthMessage),
	)

	go s.fetchInitial(ctx)
}

// Stop removes the topic subscriptions and halts freshness timers.
func (s *Store) Stop() {
	for _, unsubscribe := range s.unsubscribers {
		unsubscribe()
	}
	s.unsubscribers = nil
	s.summaryFresh.Clear()
	s.nodesFresh.Clear()
}

// Changed signals whenever the snapshot or a freshness flag changes. At most
// one notification is pending at a time.
func (s *Store) Changed() <-chan struct{} {
	return s.changed
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		SummaryFresh: s.summaryFresh.Fresh(),
		Nodes:        s.nodes,
		NodesFresh:   s.nodesFresh.Fresh(),
		NodesById:    s.nodesById,
	}
	if s.summary != nil {
		summary := *s.summary
		snap.Summary = &summary
	}
	return snap
}

func (s *Store) fetchInitial(ctx context.Context) {
	var wg sync.WaitGroup
	var summary api.HealthSummary
	var nodes []api.NodeHealth
	var summaryErr, nodesErr error

	wg.Add(2)
	go func() {
		defer wg.Done()
		summary, summaryErr = s.fetcher.ClusterHealthSummary(ctx)
	}()
	go func() {
		defer wg.Done()
		nodes, nodesErr = s.fetcher.NodeHealth(ctx)
	}()
	wg.Wait()

	if ctx.Err() != nil {
		return // a late response must not overwrite state for a newer identity
	}

	if summaryErr != nil {
		s.logger.Debug().Err(summaryErr).Msg("initial health summary fetch failed")
	} else {
		s.setSummary(summary, false)
	}
	if nodesErr != nil {
		s.logger.Debug().Err(nodesErr).Msg("initial node health fetch failed")
	} else {
		s.setNodes(nodes, false)
	}
}

func (s *Store) onSummaryMessage(msg events.Message) {
	var summary api.HealthSummary
	if err := msg.Decode(&summary); err != nil {
		s.logger.Warn().Err(err).Msg("malformed health summary event")
		return
	}
	s.setSummary(summary, true)
}

func (s *Store) onNodeHealthMessage(msg events.Message) {
	var nodes []api.NodeHealth
	if err := msg.Decode(&nodes); err != nil {
		s.logger.Warn().Err(err).Msg("malformed node health event")
		return
	}
	s.setNodes(nodes, true)
}

// setSummary replaces the summary wholesale. The summary freshness clock runs
// on the server-stamped updatedAt, not local receive time.
func (s *Store) setSummary(summary api.HealthSummary, push bool) {
	s.mu.Lock()
	if !push && s.summary != nil {
		// a push beat the initial fetch; keep the newer data
		s.mu.Unlock()
		return
	}
	s.summary = &summary
	s.mu.Unlock()

	s.summaryFresh.Update(summary.UpdatedAt)
	s.poke()
}

// setNodes replaces the per-node list wholesale and rebuilds the id-keyed
// lookup map. The node freshness clock is stamped locally on arrival.
func (s *Store) setNodes(nodes []api.NodeHealth, push bool) {
	byId := make(map[int64]api.NodeHealth, len(nodes))
	for _, nh := range nodes {
		byId[nh.Id] = nh
	}

	s.mu.Lock()
	if !push && s.nodes != nil {
		s.mu.Unlock()
		return
	}
	s.nodes = nodes
	s.nodesById = byId
	s.mu.Unlock()

	s.nodesFresh.Update(time.Now())
	s.poke()
}

func (s *Store) poke() {
	select {
	case s.changed <- struct{}{}:
	default:
	}
}
