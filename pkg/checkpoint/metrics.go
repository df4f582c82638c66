package checkpoint

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Ops tracks checkpoint operations by op
	Ops = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_sync_checkpoint_ops_total",
			Help: "Total number of checkpoint store operations",
		},
		[]string{"op"}, // "load", "save", "delete"
	)

	// Errors tracks failed checkpoint operations
	Errors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "posts_sync_checkpoint_errors_total",
			Help: "Total number of checkpoint store operation errors",
		},
		[]string{"op"},
	)
)
