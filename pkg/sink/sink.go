// Package sink stores synchronized paint cans as content nodes.
//
// A Store persists Nodes keyed by the external identifier of the remote
// record. Updater applies the create-or-update rule on top of any Store:
//
//	store, err := sink.Open(ctx, "sqlite", "nodes.db")
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	updater := sink.NewUpdater(store)
//	err = updater.Upsert(ctx, rec)
//
// Backends: memory, sqlite, postgres, mongo and bolt.
package sink

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// NodeType is the category tag of every node created by the sync.
const NodeType = "paint_can"

// ErrNotFound is returned by FindByExternalID when no node carries the id.
var ErrNotFound = errors.New("node not found")

// Upserts counts upsert outcomes by result ("created", "updated", "error").
var Upserts = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "posts_sync_upserts_total",
		Help: "Total number of node upserts by result",
	},
	[]string{"result"},
)

// Node is a locally stored paint can.
type Node struct {
	// ID is assigned by the store on first Save; zero means unsaved.
	ID int64 `json:"id"`

	Type         string    `json:"type"`
	Title        string    `json:"title"`
	ExternalID   int       `json:"external_id"`
	Colour       string    `json:"colour"`
	Year         int       `json:"year"`
	PantoneValue string    `json:"pantone_value"`
	Published    bool      `json:"published"`
	Changed      time.Time `json:"changed"`
}

// Store is the persistence contract for nodes.
// At most one node exists per ExternalID.
type Store interface {
	// FindByExternalID returns the node for extID or ErrNotFound.
	FindByExternalID(ctx context.Context, extID int) (*Node, error)

	// Save inserts the node when its ID is zero (assigning one) and
	// overwrites it otherwise.
	Save(ctx context.Context, node *Node) error

	// Count returns the number of stored nodes.
	Count(ctx context.Context) (int, error)

	Close() error
}
