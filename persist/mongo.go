package persist

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"
)

// MongoConfig configures the document-db medium.
type MongoConfig struct {
	// URI is the MongoDB connection string.
	URI string `yaml:"uri"`
	// Database is the database name. Defaults to "memgraph".
	Database string `yaml:"database"`
	// ConnectTimeout bounds the initial connectivity check. Defaults to 5s.
	ConnectTimeout time.Duration `yaml:"connect_timeout"`
}

// MongoMedium is a MongoDB-backed Medium. Each collection maps to a Mongo
// collection; documents are upserted keyed by their ID.
type MongoMedium struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// mongoDoc is the stored shape: the JSON body is kept as a string so the
// medium stays byte-faithful to what the sync manager wrote.
type mongoDoc struct {
	ID   string `bson:"_id"`
	Body string `bson:"body"`
}

// NewMongoMedium connects to MongoDB and verifies connectivity.
func NewMongoMedium(cfg MongoConfig, logger *zap.Logger) (*MongoMedium, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Database == "" {
		cfg.Database = "memgraph"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}

	client, err := mongo.Connect(options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect to MongoDB: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return &MongoMedium{
		client: client,
		db:     client.Database(cfg.Database),
		logger: logger.With(zap.String("component", "mongo_medium")),
	}, nil
}

// Close disconnects the underlying client.
func (m *MongoMedium) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}

// Write upserts docs into the collection.
func (m *MongoMedium) Write(ctx context.Context, collection string, docs []Document) error {
	coll := m.db.Collection(collection)
	for _, doc := range docs {
		_, err := coll.ReplaceOne(ctx,
			bson.M{"_id": doc.ID},
			mongoDoc{ID: doc.ID, Body: string(doc.Body)},
			options.Replace().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("upsert document %q: %w", doc.ID, err)
		}
	}
	return nil
}

// Read returns every document in the collection, ordered by ID.
func (m *MongoMedium) Read(ctx context.Context, collection string) ([]Document, error) {
	coll := m.db.Collection(collection)

	cursor, err := coll.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find documents: %w", err)
	}
	var rows []mongoDoc
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}

	out := make([]Document, 0, len(rows))
	for _, row := range rows {
		out = append(out, Document{ID: row.ID, Body: json.RawMessage(row.Body)})
	}
	return out, nil
}

// Delete removes the identified documents.
func (m *MongoMedium) Delete(ctx context.Context, collection string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := m.db.Collection(collection).DeleteMany(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}
	return nil
}
