package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/Sternrassler/posts-sync/pkg/logging"
	"github.com/Sternrassler/posts-sync/pkg/record"
	"github.com/rs/zerolog"
)

// Updater creates or updates nodes from remote records.
type Updater struct {
	store  Store
	now    func() time.Time
	logger zerolog.Logger
}

// NewUpdater creates an Updater writing to store.
func NewUpdater(store Store) *Updater {
	return &Updater{
		store:  store,
		now:    time.Now,
		logger: logging.NewLogger("sink"),
	}
}

// Upsert finds the node for rec.ID or creates one, then writes the record's
// fields onto it. Creating and updating go through the same write path, so
// the stored result depends only on rec.
func (u *Updater) Upsert(ctx context.Context, rec record.Record) error {
	node, err := u.store.FindByExternalID(ctx, rec.ID)
	created := false
	switch {
	case errors.Is(err, ErrNotFound):
		node = &Node{
			Type:       NodeType,
			Title:      rec.Name,
			ExternalID: rec.ID,
		}
		created = true
	case err != nil:
		Upserts.WithLabelValues("error").Inc()
		return fmt.Errorf("find node %d: %w", rec.ID, err)
	}

	apply(node, rec)
	node.Changed = u.now().UTC()

	if err := u.store.Save(ctx, node); err != nil {
		Upserts.WithLabelValues("error").Inc()
		return fmt.Errorf("save node %d: %w", rec.ID, err)
	}

	result := "updated"
	if created {
		result = "created"
	}
	Upserts.WithLabelValues(result).Inc()

	u.logger.Debug().
		Int("external_id", rec.ID).
		Int64("node_id", node.ID).
		Str("result", result).
		Msg("Node upserted")

	return nil
}

func apply(node *Node, rec record.Record) {
	node.Title = titleCase(rec.Name)
	node.Colour = strings.ReplaceAll(rec.Color, "#", "")
	node.Year = rec.Year
	node.PantoneValue = rec.PantoneValue
	node.Published = true
}

// titleCase upper-cases the first rune and every rune following whitespace.
// Everything else, including letters after digits, hyphens or apostrophes,
// is left untouched.
func titleCase(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	upper := true
	for _, r := range s {
		if upper {
			r = unicode.ToUpper(r)
		}
		upper = unicode.IsSpace(r)
		b.WriteRune(r)
	}
	return b.String()
}
