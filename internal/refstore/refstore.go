// Package refstore persists payment records keyed by gateway reference so
// the server can correlate initializations, verifications, and webhook
// deliveries for the same payment.
package refstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/paywith/paywith/internal/config"
)

// ErrNotFound is returned when a requested record is missing from the store.
var ErrNotFound = errors.New("refstore: not found")

// Payment record statuses.
const (
	StatusPending   = "pending"   // initialized, awaiting payment
	StatusPaid      = "paid"      // confirmed by verify or webhook
	StatusFailed    = "failed"    // gateway reported a failed charge
	StatusUnknown   = "unknown"   // verify could not determine state
	StatusAbandoned = "abandoned" // payer never completed checkout
)

// Record is one payment tracked through its lifecycle. Reference is the
// gateway-assigned identity and the primary key.
type Record struct {
	Gateway     string    `json:"gateway" bson:"gateway"`
	Reference   string    `json:"reference" bson:"reference"`
	Amount      float64   `json:"amount" bson:"amount"`
	Email       string    `json:"email" bson:"email"`
	Currency    string    `json:"currency" bson:"currency"`
	CheckoutURL string    `json:"checkout_url,omitempty" bson:"checkout_url,omitempty"`
	Status      string    `json:"status" bson:"status"`
	Message     string    `json:"message,omitempty" bson:"message,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Store captures the persistence requirements for payment records.
type Store interface {
	// Save inserts or replaces a record keyed by reference.
	Save(ctx context.Context, rec Record) error
	// Get retrieves a record by reference. Returns ErrNotFound if absent.
	Get(ctx context.Context, reference string) (Record, error)
	// UpdateStatus transitions a record's status and message.
	UpdateStatus(ctx context.Context, reference, status, message string) error
	// List returns records ordered newest first, up to limit (0 = all).
	List(ctx context.Context, limit int) ([]Record, error)

	// Driver returns the backing driver name for logs and metrics.
	Driver() string

	Close() error
}

// NewStore creates a Store instance based on the storage configuration.
func NewStore(cfg config.StorageConfig) (Store, error) {
	switch cfg.Driver {
	case "memory", "":
		return NewMemoryStore(), nil
	case "file":
		path := cfg.FilePath
		if path == "" {
			path = "./data/payments.json"
		}
		return NewFileStore(path)
	case "postgres":
		if cfg.PostgresURL == "" {
			return nil, fmt.Errorf("postgres driver requires postgres_url")
		}
		return NewPostgresStore(cfg.PostgresURL, cfg.PostgresTableName, cfg.PostgresPool)
	case "mongodb":
		if cfg.MongoDBURL == "" {
			return nil, fmt.Errorf("mongodb driver requires mongodb_url")
		}
		return NewMongoDBStore(cfg.MongoDBURL, cfg.MongoDBDatabase, cfg.MongoDBCollection)
	default:
		return nil, fmt.Errorf("unknown storage driver: %s", cfg.Driver)
	}
}

// validateRecord checks the fields every driver requires before writing.
func validateRecord(rec *Record) error {
	if rec.Reference == "" {
		return errors.New("refstore: record reference required")
	}
	if rec.Gateway == "" {
		return errors.New("refstore: record gateway required")
	}
	if rec.Status == "" {
		rec.Status = StatusPending
	}
	now := time.Now().UTC()
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = now
	}
	rec.UpdatedAt = now
	return nil
}
