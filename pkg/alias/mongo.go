package alias

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	mongoDatabase   = "gantry"
	mongoCollection = "aliases"
	mongoDocID      = "aliases"
)

// MongoStore persists the alias table as a single MongoDB document. The
// table travels as one JSON blob inside the document, so reads and writes
// stay whole-table like every other backend.
type MongoStore struct {
	client *mongo.Client
	coll   *mongo.Collection
}

// MongoConfig configures a MongoStore connection.
type MongoConfig struct {
	URI        string // connection string (default "mongodb://localhost:27017")
	Database   string // database name (default "gantry")
	Collection string // collection name (default "aliases")
}

// NewMongoStore connects to MongoDB and verifies the connection.
func NewMongoStore(ctx context.Context, cfg MongoConfig) (*MongoStore, error) {
	if cfg.URI == "" {
		cfg.URI = "mongodb://localhost:27017"
	}
	if cfg.Database == "" {
		cfg.Database = mongoDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = mongoCollection
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return &MongoStore{
		client: client,
		coll:   client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

type aliasDoc struct {
	ID   string `bson:"_id"`
	Data string `bson:"data"`
}

func (s *MongoStore) Load(ctx context.Context) (Table, error) {
	var doc aliasDoc
	err := s.coll.FindOne(ctx, bson.M{"_id": mongoDocID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Table{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load alias table: %w", err)
	}

	var table Table
	if err := json.Unmarshal([]byte(doc.Data), &table); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	if table == nil {
		table = Table{}
	}
	return table, nil
}

func (s *MongoStore) Save(ctx context.Context, t Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("marshal alias table: %w", err)
	}

	_, err = s.coll.ReplaceOne(ctx,
		bson.M{"_id": mongoDocID},
		aliasDoc{ID: mongoDocID, Data: string(data)},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save alias table: %w", err)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

var _ Store = (*MongoStore)(nil)
