package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fjod/go_storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const cartTTL = 90 * 24 * time.Hour

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// mongoCart is the stored shape; the storage key doubles as _id.
type mongoCart struct {
	ID                  string `bson:"_id"`
	domain.CartDocument `bson:",inline"`
}

type MongoStorage struct {
	collection *mongo.Collection
	key        string
}

func NewMongoStorage(db *mongo.Database, storageKey string) *MongoStorage {
	return &MongoStorage{
		collection: db.Collection("carts"),
		key:        storageKey,
	}
}

func (m *MongoStorage) Load(ctx context.Context) (*domain.CartDocument, error) {
	var stored mongoCart
	err := m.collection.FindOne(ctx, bson.M{"_id": m.key}).Decode(&stored)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return &stored.CartDocument, nil
}

func (m *MongoStorage) Save(ctx context.Context, doc domain.CartDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	opts := options.Replace().SetUpsert(true)

	_, err := m.collection.ReplaceOne(ctx, bson.M{"_id": m.key}, mongoCart{ID: m.key, CartDocument: doc}, opts)
	if err != nil {
		return fmt.Errorf("failed to upsert cart: %w", err)
	}
	return nil
}

func (m *MongoStorage) Clear(ctx context.Context) error {
	if _, err := m.collection.DeleteOne(ctx, bson.M{"_id": m.key}); err != nil {
		return fmt.Errorf("failed to delete cart: %w", err)
	}
	return nil
}

// CreateIndexes expires carts that have not been touched for 90 days.
func (m *MongoStorage) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "updated_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(int32(cartTTL.Seconds())),
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.collection.Database().Client().Disconnect(ctx)
}
