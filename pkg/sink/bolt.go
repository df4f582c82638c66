package sink

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketNodes       = []byte("nodes")
	bucketExternalIDs = []byte("external_ids")
)

// BoltStore persists nodes in a bbolt file. Nodes are JSON values keyed by
// their big-endian id; a second bucket maps external ids to node ids.
type BoltStore struct {
	db *bolt.DB
}

// NewBoltStore opens (or creates) the bolt file at path.
func NewBoltStore(path string) (*BoltStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating data dir: %w", err)
		}
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketNodes, bucketExternalIDs} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

func idKey(id int64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func externalKey(extID int) []byte {
	return []byte(strconv.Itoa(extID))
}

func (s *BoltStore) FindByExternalID(ctx context.Context, extID int) (*Node, error) {
	var node *Node
	err := s.db.View(func(tx *bolt.Tx) error {
		idBytes := tx.Bucket(bucketExternalIDs).Get(externalKey(extID))
		if idBytes == nil {
			return ErrNotFound
		}
		data := tx.Bucket(bucketNodes).Get(idBytes)
		if data == nil {
			return ErrNotFound
		}
		node = &Node{}
		return json.Unmarshal(data, node)
	})
	if err != nil {
		return nil, err
	}
	return node, nil
}

func (s *BoltStore) Save(ctx context.Context, node *Node) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		nodes := tx.Bucket(bucketNodes)
		if node.ID == 0 {
			seq, err := nodes.NextSequence()
			if err != nil {
				return fmt.Errorf("allocate node id: %w", err)
			}
			node.ID = int64(seq)
		}

		data, err := json.Marshal(node)
		if err != nil {
			return fmt.Errorf("encode node: %w", err)
		}
		if err := nodes.Put(idKey(node.ID), data); err != nil {
			return err
		}
		return tx.Bucket(bucketExternalIDs).Put(externalKey(node.ExternalID), idKey(node.ID))
	})
}

func (s *BoltStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketNodes).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
