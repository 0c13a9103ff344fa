package cold

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("records")

// BoltStore is a bbolt-backed cold tier. Records survive process
// restarts; bbolt serializes writers internally, so the store is safe
// for concurrent use.
type BoltStore struct {
	db      *bolt.DB
	maxSize int
}

// OpenBolt opens (or creates) the store at path. maxSize <= 0 means
// unbounded. A failure here is fatal for cache construction: there is no
// degraded mode without an authoritative tier.
func OpenBolt(path string, maxSize int) (*BoltStore, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("cold: open %s: %w", path, err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cold: init bucket: %w", err)
	}
	return &BoltStore{db: db, maxSize: maxSize}, nil
}

func (s *BoltStore) Get(key string) (Record, bool, error) {
	var (
		rec   Record
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		data := tx.Bucket(boltBucket).Get([]byte(key))
		if data == nil {
			return nil
		}
		r, err := unwrapRecord(data)
		if err != nil {
			return err
		}
		// bbolt bytes are only valid inside the transaction.
		p := make([]byte, len(r.Payload))
		copy(p, r.Payload)
		r.Payload = p
		rec, found = r, true
		return nil
	})
	if err != nil {
		return Record{}, false, err
	}
	return rec, found, nil
}

func (s *BoltStore) Put(key string, rec Record) error {
	data := wrapRecord(rec)
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if s.maxSize > 0 && b.Get([]byte(key)) == nil && b.Stats().KeyN >= s.maxSize {
			return ErrFull
		}
		return b.Put([]byte(key), data)
	})
}

func (s *BoltStore) Remove(key string) (bool, error) {
	removed := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		if b.Get([]byte(key)) == nil {
			return nil
		}
		removed = true
		return b.Delete([]byte(key))
	})
	return removed, err
}

func (s *BoltStore) Clear() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(boltBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(boltBucket)
		return err
	})
}

func (s *BoltStore) Len() (int, error) {
	n := 0
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(boltBucket).Stats().KeyN
		return nil
	})
	return n, err
}

func (s *BoltStore) SweepExpired(now int64) (int, error) {
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(boltBucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			if envelopeExpired(v, now) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}

func (s *BoltStore) Close() error { return s.db.Close() }

var _ Store = (*BoltStore)(nil)
