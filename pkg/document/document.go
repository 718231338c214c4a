package document

import (
	"encoding/json"
	"os"

	"github.com/joho/godotenv"
	log "github.com/sirupsen/logrus"
)

// Store is a document store addressed by dotted paths into a nested JSON
// tree ("<guildID>.<memberID>.money"). Reads on unknown paths resolve to
// nil and never fail; mutations report storage failures.
type Store interface {
	// Fetch returns the value at the path, or nil if the path does not exist.
	Fetch(path string) any
	// Set writes the value at the path, creating intermediate objects.
	Set(path string, value any) error
	// Add increments the numeric value at the path, treating a missing value as 0.
	Add(path string, amount int) error
	// Subtract decrements the numeric value at the path, treating a missing value as 0.
	Subtract(path string, amount int) error
	// Push appends the value to the array at the path, creating it if missing.
	Push(path string, value any) error
	// Pop removes the element at the index from the array at the path.
	// Negative indexes count from the end.
	Pop(path string, index int) error
	// Pull removes the first element equal to value from the array at the
	// path, or the element at the index when value is nil.
	Pull(path string, index int, value any) error
	// Remove deletes the value at the path.
	Remove(path string) error
	// All returns the whole document tree.
	All() map[string]any
	// Close releases any resources held by the store.
	Close() error
}

// NewStore creates the store configured by the ECONOMY_STORE environment
// variable: "file", "bolt", or "mongo" (the default).
func NewStore() (Store, error) {
	godotenv.Load()

	storeType := os.Getenv("ECONOMY_STORE")
	log.Debug("Storage type:", storeType)
	switch storeType {
	case "file":
		return NewFileStore(os.Getenv("ECONOMY_FILE_STORE_DIR"))
	case "bolt":
		return NewBoltStore(os.Getenv("ECONOMY_BOLT_PATH"))
	default:
		return NewMongoStore(os.Getenv("MONGODB_URI"))
	}
}

// Decode converts a value fetched from a store into the target type. Stores
// hold canonical JSON shapes (maps, slices, float64), so records read back
// from any backend decode the same way.
func Decode(value any, out any) error {
	if value == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

// normalize converts a value into its canonical JSON shape so that values
// written to a store look the same before and after a reload.
func normalize(value any) any {
	if value == nil {
		return nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		log.Errorf("Unable to marshal value for storage, error=%s", err.Error())
		return nil
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		log.Errorf("Unable to unmarshal value for storage, error=%s", err.Error())
		return nil
	}
	return out
}
