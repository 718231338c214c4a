package document

import (
	"encoding/json"
	"time"

	log "github.com/sirupsen/logrus"
	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("economy")

// boltStore is a Store that keeps one JSON document per guild in a bbolt
// bucket. Every mutation runs inside a single update transaction, so
// operations on one guild document are atomic.
type boltStore struct {
	db *bolt.DB
}

// NewBoltStore creates a bbolt-backed Store at the given file path.
func NewBoltStore(path string) (Store, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 10 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return &boltStore{db: db}, nil
}

// loadDoc reads the guild document out of the bucket, returning an empty
// tree when the guild has no document yet.
func loadDoc(b *bolt.Bucket, guildID string) map[string]any {
	doc := make(map[string]any)
	data := b.Get([]byte(guildID))
	if data == nil {
		return doc
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Errorf("Unable to unmarshal the document for guild %s, error=%s", guildID, err.Error())
	}
	return doc
}

// saveDoc writes the guild document back into the bucket.
func saveDoc(b *bolt.Bucket, guildID string, doc map[string]any) error {
	data, err := json.Marshal(doc)
	if err != nil {
		log.Errorf("Unable to marshal the document for guild %s, error=%s", guildID, err.Error())
		return err
	}
	return b.Put([]byte(guildID), data)
}

// update applies fn to the guild document addressed by the first path
// segment, inside one transaction.
func (s *boltStore) update(path string, fn func(doc map[string]any, rest []string)) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	guildID, rest := segments[0], segments[1:]
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		doc := loadDoc(b, guildID)
		fn(doc, rest)
		return saveDoc(b, guildID, doc)
	})
}

// Fetch returns the value at the path, or nil if the path does not exist.
func (s *boltStore) Fetch(path string) any {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	var value any
	s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(boltBucket)
		// An absent guild document resolves to nil, not an empty tree.
		if b.Get([]byte(segments[0])) == nil {
			return nil
		}
		value = lookup(loadDoc(b, segments[0]), segments[1:])
		return nil
	})
	return value
}

// Set writes the value at the path.
func (s *boltStore) Set(path string, value any) error {
	segments := splitPath(path)
	if len(segments) == 1 {
		// Replace the whole guild document.
		doc, ok := normalize(value).(map[string]any)
		if !ok {
			doc = make(map[string]any)
		}
		return s.db.Update(func(tx *bolt.Tx) error {
			return saveDoc(tx.Bucket(boltBucket), segments[0], doc)
		})
	}
	return s.update(path, func(doc map[string]any, rest []string) {
		put(doc, rest, normalize(value))
	})
}

// Add increments the numeric value at the path.
func (s *boltStore) Add(path string, amount int) error {
	return s.update(path, func(doc map[string]any, rest []string) {
		put(doc, rest, asNumber(lookup(doc, rest))+float64(amount))
	})
}

// Subtract decrements the numeric value at the path.
func (s *boltStore) Subtract(path string, amount int) error {
	return s.Add(path, -amount)
}

// Push appends the value to the array at the path.
func (s *boltStore) Push(path string, value any) error {
	return s.update(path, func(doc map[string]any, rest []string) {
		put(doc, rest, append(asArray(lookup(doc, rest)), normalize(value)))
	})
}

// Pop removes the element at the index from the array at the path.
func (s *boltStore) Pop(path string, index int) error {
	return s.Pull(path, index, nil)
}

// Pull removes the first element equal to value from the array at the path,
// or the element at the index when value is nil.
func (s *boltStore) Pull(path string, index int, value any) error {
	return s.update(path, func(doc map[string]any, rest []string) {
		put(doc, rest, removeFromArray(asArray(lookup(doc, rest)), index, normalize(value)))
	})
}

// Remove deletes the value at the path. Removing a bare guild path deletes
// the whole guild document.
func (s *boltStore) Remove(path string) error {
	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	if len(segments) == 1 {
		return s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(boltBucket).Delete([]byte(segments[0]))
		})
	}
	return s.update(path, func(doc map[string]any, rest []string) {
		remove(doc, rest)
	})
}

// All returns the whole document tree, one entry per guild.
func (s *boltStore) All() map[string]any {
	tree := make(map[string]any)
	s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).ForEach(func(k, v []byte) error {
			doc := make(map[string]any)
			if err := json.Unmarshal(v, &doc); err != nil {
				log.Errorf("Unable to unmarshal the document for guild %s, error=%s", string(k), err.Error())
				return nil
			}
			tree[string(k)] = doc
			return nil
		})
	})
	return tree
}

// Close closes the underlying database.
func (s *boltStore) Close() error {
	return s.db.Close()
}
