package refstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDBStore implements Store using MongoDB.
type MongoDBStore struct {
	client   *mongo.Client
	payments *mongo.Collection
}

// NewMongoDBStore creates a new MongoDB-backed store.
func NewMongoDBStore(connectionString, database, collection string) (*MongoDBStore, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(connectionString))
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		// Disconnect() error during initialization cleanup is not actionable;
		// the connection failure is the error that matters.
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	if database == "" {
		database = "paywith"
	}
	if collection == "" {
		collection = "payments"
	}

	store := &MongoDBStore{
		client:   client,
		payments: client.Database(database).Collection(collection),
	}

	if err := store.createIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return store, nil
}

// createIndexes creates necessary indexes for the payments collection.
func (s *MongoDBStore) createIndexes(ctx context.Context) error {
	_, err := s.payments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "reference", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
	})
	if err != nil {
		return fmt.Errorf("create payments indexes: %w", err)
	}
	return nil
}

// Save inserts or replaces a record keyed by reference.
func (s *MongoDBStore) Save(ctx context.Context, rec Record) error {
	if err := validateRecord(&rec); err != nil {
		return err
	}

	filter := bson.M{"reference": rec.Reference}
	update := bson.M{
		"$set": bson.M{
			"gateway":      rec.Gateway,
			"amount":       rec.Amount,
			"email":        rec.Email,
			"currency":     rec.Currency,
			"checkout_url": rec.CheckoutURL,
			"status":       rec.Status,
			"message":      rec.Message,
			"updated_at":   rec.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"reference":  rec.Reference,
			"created_at": rec.CreatedAt,
		},
	}

	_, err := s.payments.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save payment record: %w", err)
	}
	return nil
}

// Get retrieves a record by reference.
func (s *MongoDBStore) Get(ctx context.Context, reference string) (Record, error) {
	var rec Record
	err := s.payments.FindOne(ctx, bson.M{"reference": reference}).Decode(&rec)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get payment record: %w", err)
	}
	return rec, nil
}

// UpdateStatus transitions a record's status and message.
func (s *MongoDBStore) UpdateStatus(ctx context.Context, reference, status, message string) error {
	update := bson.M{
		"$set": bson.M{
			"status":     status,
			"message":    message,
			"updated_at": time.Now().UTC(),
		},
	}

	res, err := s.payments.UpdateOne(ctx, bson.M{"reference": reference}, update)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records ordered newest first, up to limit (0 = all).
func (s *MongoDBStore) List(ctx context.Context, limit int) ([]Record, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := s.payments.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("list payment records: %w", err)
	}
	defer cursor.Close(ctx)

	var out []Record
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode payment records: %w", err)
	}
	return out, nil
}

// Driver returns the backing driver name.
func (s *MongoDBStore) Driver() string { return "mongodb" }

// Close disconnects from MongoDB.
func (s *MongoDBStore) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}
