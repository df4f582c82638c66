package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"
)

// DefaultMongoDatabase is used when the connection URI names no database.
const DefaultMongoDatabase = "posts_sync"

const (
	mongoNodesCollection    = "nodes"
	mongoCountersCollection = "counters"
)

type mongoNode struct {
	ID           int64     `bson:"_id"`
	Type         string    `bson:"type"`
	Title        string    `bson:"title"`
	ExternalID   int       `bson:"external_id"`
	Colour       string    `bson:"colour"`
	Year         int       `bson:"year"`
	PantoneValue string    `bson:"pantone_value"`
	Published    bool      `bson:"published"`
	Changed      time.Time `bson:"changed"`
}

// MongoStore persists nodes in a MongoDB collection. Node ids come from a
// counter document so they stay sequential integers like the SQL backends.
type MongoStore struct {
	client   *mongo.Client
	nodes    *mongo.Collection
	counters *mongo.Collection
}

// NewMongoStore connects to uri, pings the primary and ensures the unique
// external_id index.
func NewMongoStore(ctx context.Context, uri string) (*MongoStore, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing uri: %w", err)
	}
	dbName := cs.Database
	if dbName == "" {
		dbName = DefaultMongoDatabase
	}

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("creating mongo client: %w", err)
	}

	pingCtx, pingCancel := context.WithTimeout(ctx, 5*time.Second)
	defer pingCancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("pinging mongo: %w", err)
	}

	db := client.Database(dbName)
	s := &MongoStore{
		client:   client,
		nodes:    db.Collection(mongoNodesCollection),
		counters: db.Collection(mongoCountersCollection),
	}

	_, err = s.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "external_id", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("creating index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) FindByExternalID(ctx context.Context, extID int) (*Node, error) {
	var doc mongoNode
	err := s.nodes.FindOne(ctx, bson.M{"external_id": extID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find node: %w", err)
	}

	node := Node(doc)
	return &node, nil
}

func (s *MongoStore) Save(ctx context.Context, node *Node) error {
	if node.ID == 0 {
		id, err := s.nextID(ctx)
		if err != nil {
			return err
		}
		node.ID = id
	}

	doc := mongoNode(*node)
	_, err := s.nodes.ReplaceOne(ctx, bson.M{"_id": node.ID}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save node %d: %w", node.ID, err)
	}
	return nil
}

func (s *MongoStore) nextID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := s.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": mongoNodesCollection},
		bson.M{"$inc": bson.M{"seq": int64(1)}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("allocate node id: %w", err)
	}
	return counter.Seq, nil
}

func (s *MongoStore) Count(ctx context.Context) (int, error) {
	n, err := s.nodes.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
