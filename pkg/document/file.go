package document

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

const fileStoreName = "economy.json"

// fileStore is a Store that keeps the whole document tree in memory and
// rewrites a single JSON file after every mutation. This is the legacy
// flat-file variant; every write is synchronous.
type fileStore struct {
	mu       sync.Mutex
	filename string
	tree     map[string]any
}

// NewFileStore creates a file-backed Store rooted in the given directory,
// loading the existing tree if one is present.
func NewFileStore(dir string) (Store, error) {
	f := &fileStore{
		filename: filepath.Join(dir, fileStoreName),
		tree:     make(map[string]any),
	}

	data, err := os.ReadFile(f.filename)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		return f, nil
	}
	if err := json.Unmarshal(data, &f.tree); err != nil {
		log.Errorf("Unable to unmarshal the document tree from %s, error=%s", f.filename, err.Error())
		return nil, err
	}
	return f, nil
}

// save rewrites the backing file from the in-memory tree. The caller must
// hold the lock.
func (f *fileStore) save() error {
	data, err := json.Marshal(f.tree)
	if err != nil {
		log.Errorf("Unable to marshal the document tree, error=%s", err.Error())
		return err
	}
	if err := os.WriteFile(f.filename, data, 0644); err != nil {
		log.Errorf("Unable to save the document tree to %s, error=%s", f.filename, err.Error())
		return err
	}
	return nil
}

// Fetch returns the value at the path, or nil if the path does not exist.
func (f *fileStore) Fetch(path string) any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return deepCopy(lookup(f.tree, splitPath(path)))
}

// Set writes the value at the path.
func (f *fileStore) Set(path string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	put(f.tree, segments, normalize(value))
	return f.save()
}

// Add increments the numeric value at the path.
func (f *fileStore) Add(path string, amount int) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	segments := splitPath(path)
	current := asNumber(lookup(f.tree, segments))
	put(f.tree, segments, current+float64(amount))
	return f.save()
}

// Subtract decrements the numeric value at the path.
func (f *fileStore) Subtract(path string, amount int) error {
	return f.Add(path, -amount)
}

// Push appends the value to the array at the path.
func (f *fileStore) Push(path string, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	segments := splitPath(path)
	arr := asArray(lookup(f.tree, segments))
	put(f.tree, segments, append(arr, normalize(value)))
	return f.save()
}

// Pop removes the element at the index from the array at the path.
func (f *fileStore) Pop(path string, index int) error {
	return f.Pull(path, index, nil)
}

// Pull removes the first element equal to value from the array at the path,
// or the element at the index when value is nil.
func (f *fileStore) Pull(path string, index int, value any) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	segments := splitPath(path)
	arr := asArray(lookup(f.tree, segments))
	put(f.tree, segments, removeFromArray(arr, index, normalize(value)))
	return f.save()
}

// Remove deletes the value at the path.
func (f *fileStore) Remove(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	segments := splitPath(path)
	if len(segments) == 0 {
		return nil
	}
	remove(f.tree, segments)
	return f.save()
}

// All returns a copy of the whole document tree.
func (f *fileStore) All() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return deepCopy(f.tree).(map[string]any)
}

// Close is a no-op for the file store.
func (f *fileStore) Close() error {
	return nil
}
