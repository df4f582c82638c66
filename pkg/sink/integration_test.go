//go:build integration

package sink

import (
	"context"
	"fmt"
	"testing"

	"github.com/Sternrassler/posts-sync/pkg/record"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// startContainer runs image and returns its host:port endpoint for port.
func startContainer(t *testing.T, req testcontainers.ContainerRequest) string {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		t.Fatalf("Failed to start %s container: %v", req.Image, err)
	}
	t.Cleanup(func() { container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("Failed to get %s endpoint: %v", req.Image, err)
	}
	return endpoint
}

func TestPostgresStore_Integration(t *testing.T) {
	endpoint := startContainer(t, testcontainers.ContainerRequest{
		Image:        "postgres:16-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     "sync",
			"POSTGRES_PASSWORD": "sync",
			"POSTGRES_DB":       "posts",
		},
		WaitingFor: wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
	})

	ctx := context.Background()
	store, err := NewPostgresStore(ctx, fmt.Sprintf("postgres://sync:sync@%s/posts?sslmode=disable", endpoint))
	if err != nil {
		t.Fatalf("NewPostgresStore failed: %v", err)
	}
	defer store.Close()

	runStoreContract(t, store)
	runUpsertTwice(t, store)
}

func TestMongoStore_Integration(t *testing.T) {
	endpoint := startContainer(t, testcontainers.ContainerRequest{
		Image:        "mongo:7",
		ExposedPorts: []string{"27017/tcp"},
		WaitingFor:   wait.ForLog("Waiting for connections"),
	})

	ctx := context.Background()
	store, err := NewMongoStore(ctx, fmt.Sprintf("mongodb://%s/posts_sync_test", endpoint))
	if err != nil {
		t.Fatalf("NewMongoStore failed: %v", err)
	}
	defer store.Close()

	runStoreContract(t, store)
	runUpsertTwice(t, store)
}

func runUpsertTwice(t *testing.T, store Store) {
	t.Helper()
	ctx := context.Background()
	u := NewUpdater(store)

	before, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}

	rec := record.Record{ID: 1001, Name: "blue turquoise", Year: 2005, Color: "#53B0AE", PantoneValue: "15-5217"}
	for i := 0; i < 2; i++ {
		if err := u.Upsert(ctx, rec); err != nil {
			t.Fatalf("Upsert %d failed: %v", i+1, err)
		}
	}

	after, err := store.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if after != before+1 {
		t.Errorf("Count went from %d to %d, want +1", before, after)
	}

	node, err := store.FindByExternalID(ctx, 1001)
	if err != nil {
		t.Fatal(err)
	}
	if node.Title != "Blue Turquoise" || node.Colour != "53B0AE" {
		t.Errorf("unexpected node: %+v", node)
	}
}
