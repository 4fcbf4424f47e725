package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jinzhu/copier"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/dshills/blockedit/internal/document"
)

// DefaultMongoURL is used when no URL is configured.
const DefaultMongoURL = "mongodb://localhost:27017"

// Mongo is a Store holding one collection document per editor document.
type Mongo struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// record is the collection document. Blocks are kept as their JSON text
// so rich content keeps its plain-or-rich encoding.
type record struct {
	ID       string            `bson:"_id"`
	Version  int64             `bson:"version"`
	Metadata document.Metadata `bson:"metadata"`
	Body     string            `bson:"blocks"`
}

// OpenMongo connects to url and returns a store for database.collection.
func OpenMongo(ctx context.Context, url, database, collection string) (*Mongo, error) {
	if url == "" {
		url = DefaultMongoURL
	}
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(url))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}
	return &Mongo{client: client, collection: client.Database(database).Collection(collection)}, nil
}

// LoadDocument implements Storage.
func (m *Mongo) LoadDocument(ctx context.Context, id string) (*document.Document, error) {
	var rec record
	err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&rec)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load document %s: %w", id, err)
	}
	return fromRecord(rec)
}

// SaveDocument implements Storage with an upsert.
func (m *Mongo) SaveDocument(ctx context.Context, id string, doc document.Document) error {
	rec, err := toRecord(id, doc)
	if err != nil {
		return err
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := m.collection.ReplaceOne(ctx, bson.M{"_id": id}, rec, opts); err != nil {
		return fmt.Errorf("failed to save document %s: %w", id, err)
	}
	return nil
}

// ListDocuments implements Store.
func (m *Mongo) ListDocuments(ctx context.Context) ([]string, error) {
	opts := options.Find().SetProjection(bson.M{"_id": 1}).SetSort(bson.M{"_id": 1})
	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find documents: %w", err)
	}
	defer cursor.Close(ctx)

	var ids []string
	for cursor.Next(ctx) {
		var rec struct {
			ID string `bson:"_id"`
		}
		if err := cursor.Decode(&rec); err != nil {
			return nil, fmt.Errorf("failed to decode document id: %w", err)
		}
		ids = append(ids, rec.ID)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %w", err)
	}
	return ids, nil
}

// Close disconnects the client.
func (m *Mongo) Close() error {
	return m.client.Disconnect(context.Background())
}

func toRecord(id string, doc document.Document) (record, error) {
	var rec record
	if err := copier.Copy(&rec, &doc); err != nil {
		return record{}, fmt.Errorf("failed to map document %s: %w", id, err)
	}
	body, err := json.Marshal(doc.Blocks)
	if err != nil {
		return record{}, fmt.Errorf("failed to marshal blocks of %s: %w", id, err)
	}
	rec.ID = id
	rec.Body = string(body)
	return rec, nil
}

func fromRecord(rec record) (*document.Document, error) {
	var doc document.Document
	if err := copier.Copy(&doc, &rec); err != nil {
		return nil, fmt.Errorf("failed to map record %s: %w", rec.ID, err)
	}
	if rec.Body != "" {
		if err := json.Unmarshal([]byte(rec.Body), &doc.Blocks); err != nil {
			return nil, fmt.Errorf("failed to decode blocks of %s: %w", rec.ID, err)
		}
	}
	return &doc, nil
}
