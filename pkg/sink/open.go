package sink

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

type opener func(ctx context.Context, dsn string) (Store, error)

var drivers = map[string]opener{
	"memory": func(ctx context.Context, dsn string) (Store, error) {
		return NewMemoryStore(), nil
	},
	"sqlite": func(ctx context.Context, dsn string) (Store, error) {
		return NewSQLiteStore(ctx, dsn)
	},
	"postgres": func(ctx context.Context, dsn string) (Store, error) {
		return NewPostgresStore(ctx, dsn)
	},
	"mongo": func(ctx context.Context, dsn string) (Store, error) {
		return NewMongoStore(ctx, dsn)
	},
	"bolt": func(ctx context.Context, dsn string) (Store, error) {
		return NewBoltStore(dsn)
	},
}

var aliases = map[string]string{
	"sqlite3":    "sqlite",
	"pg":         "postgres",
	"postgresql": "postgres",
	"mongodb":    "mongo",
	"bbolt":      "bolt",
}

// Canonical returns the primary driver name for a name or alias
// (case-insensitive), or "" if unknown.
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if primary, ok := aliases[name]; ok {
		return primary
	}
	if _, ok := drivers[name]; ok {
		return name
	}
	return ""
}

// Drivers lists the primary driver names.
func Drivers() []string {
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open returns a Store for the named driver.
func Open(ctx context.Context, driver, dsn string) (Store, error) {
	primary := Canonical(driver)
	if primary == "" {
		return nil, fmt.Errorf("unknown sink driver: %q (available: %v)", driver, Drivers())
	}
	store, err := drivers[primary](ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s sink: %w", primary, err)
	}
	return store, nil
}
