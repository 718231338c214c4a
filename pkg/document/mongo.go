package document

import (
	"context"
	"strconv"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "Economy"
	mongoCollection = "guilds"
	mongoTimeout    = 10 * time.Second
)

// mongoStore is a Store that keeps one document per guild in a MongoDB
// collection. The first path segment selects the document by _id; the
// remaining segments form the native dotted field path, so arithmetic and
// array mutations are delegated to the server.
type mongoStore struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// NewMongoStore connects to MongoDB at the given URI and returns a Store
// over the guilds collection.
func NewMongoStore(uri string) (Store, error) {
	ctx, cancel := context.WithTimeout(context.Background(), mongoTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		log.Error("Unable to connect to the MongoDB database, error:", err)
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		log.Error("Unable to ping the MongoDB database, error:", err)
		return nil, err
	}

	m := &mongoStore{
		client:     client,
		collection: client.Database(mongoDatabase).Collection(mongoCollection),
	}
	return m, nil
}

// splitDocPath splits a dotted path into the guild document ID and the
// dotted field path within that document.
func splitDocPath(path string) (string, string) {
	segments := splitPath(path)
	if len(segments) == 0 {
		return "", ""
	}
	return segments[0], strings.Join(segments[1:], ".")
}

func (m *mongoStore) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), mongoTimeout)
}

// updateOne applies the update to the guild document, creating it if needed.
func (m *mongoStore) updateOne(guildID string, update bson.M) error {
	ctx, cancel := m.ctx()
	defer cancel()

	opts := options.Update().SetUpsert(true)
	_, err := m.collection.UpdateOne(ctx, bson.M{"_id": guildID}, update, opts)
	if err != nil {
		log.Errorf("Failed to update the document for guild %s, error=%s", guildID, err.Error())
	}
	return err
}

// Fetch returns the value at the path, or nil if the path does not exist.
func (m *mongoStore) Fetch(path string) any {
	guildID, field := splitDocPath(path)
	if guildID == "" {
		return nil
	}

	ctx, cancel := m.ctx()
	defer cancel()

	var doc bson.M
	err := m.collection.FindOne(ctx, bson.M{"_id": guildID}).Decode(&doc)
	if err != nil {
		if err != mongo.ErrNoDocuments {
			log.Errorf("Failed to fetch the document for guild %s, error=%s", guildID, err.Error())
		}
		return nil
	}
	delete(doc, "_id")
	tree := bsonToTree(doc).(map[string]any)
	if field == "" {
		return tree
	}
	return lookup(tree, splitPath(field))
}

// Set writes the value at the path.
func (m *mongoStore) Set(path string, value any) error {
	guildID, field := splitDocPath(path)
	if guildID == "" {
		return nil
	}
	if field == "" {
		doc, ok := normalize(value).(map[string]any)
		if !ok {
			doc = make(map[string]any)
		}
		ctx, cancel := m.ctx()
		defer cancel()
		opts := options.Replace().SetUpsert(true)
		_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": guildID}, doc, opts)
		if err != nil {
			log.Errorf("Failed to replace the document for guild %s, error=%s", guildID, err.Error())
		}
		return err
	}
	return m.updateOne(guildID, bson.M{"$set": bson.M{field: normalize(value)}})
}

// Add increments the numeric value at the path on the server.
func (m *mongoStore) Add(path string, amount int) error {
	guildID, field := splitDocPath(path)
	if guildID == "" || field == "" {
		return nil
	}
	return m.updateOne(guildID, bson.M{"$inc": bson.M{field: amount}})
}

// Subtract decrements the numeric value at the path on the server.
func (m *mongoStore) Subtract(path string, amount int) error {
	return m.Add(path, -amount)
}

// Push appends the value to the array at the path on the server.
func (m *mongoStore) Push(path string, value any) error {
	guildID, field := splitDocPath(path)
	if guildID == "" || field == "" {
		return nil
	}
	return m.updateOne(guildID, bson.M{"$push": bson.M{field: normalize(value)}})
}

// Pop removes the element at the index from the array at the path. The
// first and last elements use the native $pop; interior indexes are unset
// and then pulled as null.
func (m *mongoStore) Pop(path string, index int) error {
	guildID, field := splitDocPath(path)
	if guildID == "" || field == "" {
		return nil
	}
	switch index {
	case 0:
		return m.updateOne(guildID, bson.M{"$pop": bson.M{field: -1}})
	case -1:
		return m.updateOne(guildID, bson.M{"$pop": bson.M{field: 1}})
	default:
		elem := field + "." + strconv.Itoa(index)
		if err := m.updateOne(guildID, bson.M{"$unset": bson.M{elem: 1}}); err != nil {
			return err
		}
		return m.updateOne(guildID, bson.M{"$pull": bson.M{field: nil}})
	}
}

// Pull removes the first element equal to value from the array at the path,
// or the element at the index when value is nil.
func (m *mongoStore) Pull(path string, index int, value any) error {
	if value == nil {
		return m.Pop(path, index)
	}
	guildID, field := splitDocPath(path)
	if guildID == "" || field == "" {
		return nil
	}
	return m.updateOne(guildID, bson.M{"$pull": bson.M{field: normalize(value)}})
}

// Remove deletes the value at the path. Removing a bare guild path deletes
// the whole guild document.
func (m *mongoStore) Remove(path string) error {
	guildID, field := splitDocPath(path)
	if guildID == "" {
		return nil
	}
	if field == "" {
		ctx, cancel := m.ctx()
		defer cancel()
		_, err := m.collection.DeleteOne(ctx, bson.M{"_id": guildID})
		if err != nil {
			log.Errorf("Failed to delete the document for guild %s, error=%s", guildID, err.Error())
		}
		return err
	}
	return m.updateOne(guildID, bson.M{"$unset": bson.M{field: 1}})
}

// All returns the whole document tree, one entry per guild.
func (m *mongoStore) All() map[string]any {
	ctx, cancel := m.ctx()
	defer cancel()

	tree := make(map[string]any)
	cur, err := m.collection.Find(ctx, bson.D{})
	if err != nil {
		log.Errorf("Failed to list the guild documents, error=%s", err.Error())
		return tree
	}
	var docs []bson.M
	if err := cur.All(ctx, &docs); err != nil {
		log.Errorf("Failed to decode the guild documents, error=%s", err.Error())
		return tree
	}
	for _, doc := range docs {
		id, _ := doc["_id"].(string)
		if id == "" {
			continue
		}
		delete(doc, "_id")
		tree[id] = bsonToTree(doc)
	}
	return tree
}

// Close disconnects the client.
func (m *mongoStore) Close() error {
	ctx, cancel := m.ctx()
	defer cancel()
	return m.client.Disconnect(ctx)
}

// bsonToTree converts decoded BSON values into the canonical JSON shapes
// the rest of the store layer works with.
func bsonToTree(value any) any {
	switch v := value.(type) {
	case bson.M:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = bsonToTree(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, elem := range v {
			out[k] = bsonToTree(elem)
		}
		return out
	case bson.A:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = bsonToTree(elem)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = bsonToTree(elem)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(v))
		for _, elem := range v {
			out[elem.Key] = bsonToTree(elem.Value)
		}
		return out
	case int32:
		return float64(v)
	case int64:
		return float64(v)
	case primitive.DateTime:
		return float64(v)
	default:
		return v
	}
}

