package events

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	messagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pihole_cluster_admin",
		Subsystem: "events",
		Name:      "messages_total",
		Help:      "Messages fanned out to topic handlers.",
	}, []string{"topic"})

	connectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pihole_cluster_admin",
		Subsystem: "events",
		Name:      "connections_total",
		Help:      "Event stream connections successfully established.",
	})

	reconnectsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pihole_cluster_admin",
		Subsystem: "events",
		Name:      "reconnects_total",
		Help:      "Reconnect attempts scheduled after a lost event stream.",
	})
)
