package refstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/paywith/paywith/internal/config"
)

// PostgresStore implements Store using PostgreSQL.
type PostgresStore struct {
	db        *sql.DB
	tableName string
}

// NewPostgresStore creates a new PostgreSQL-backed store and ensures the
// payments table exists.
func NewPostgresStore(connectionString, tableName string, poolConfig config.PostgresPoolConfig) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connectionString)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.Ping(); err != nil {
		// Close() error during initialization cleanup is not actionable;
		// the connection failure is the error that matters.
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	config.ApplyPostgresPoolSettings(db, poolConfig)

	if tableName == "" {
		tableName = "payments"
	}

	store := &PostgresStore{
		db:        db,
		tableName: tableName,
	}

	if err := store.createTable(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return store, nil
}

// createTable creates the payments table if it doesn't exist.
func (s *PostgresStore) createTable() error {
	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			reference TEXT PRIMARY KEY,
			gateway TEXT NOT NULL,
			amount DOUBLE PRECISION NOT NULL,
			email TEXT NOT NULL,
			currency TEXT NOT NULL,
			checkout_url TEXT,
			status TEXT NOT NULL,
			message TEXT,
			created_at TIMESTAMPTZ NOT NULL,
			updated_at TIMESTAMPTZ NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_%s_status ON %s (status);
		CREATE INDEX IF NOT EXISTS idx_%s_created_at ON %s (created_at DESC);
	`, s.tableName, s.tableName, s.tableName, s.tableName, s.tableName)

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("create payments table: %w", err)
	}
	return nil
}

// Save inserts or replaces a record keyed by reference.
func (s *PostgresStore) Save(ctx context.Context, rec Record) error {
	if err := validateRecord(&rec); err != nil {
		return err
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (reference, gateway, amount, email, currency, checkout_url, status, message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (reference) DO UPDATE SET
			gateway = EXCLUDED.gateway,
			amount = EXCLUDED.amount,
			email = EXCLUDED.email,
			currency = EXCLUDED.currency,
			checkout_url = EXCLUDED.checkout_url,
			status = EXCLUDED.status,
			message = EXCLUDED.message,
			updated_at = EXCLUDED.updated_at
	`, s.tableName)

	_, err := s.db.ExecContext(ctx, query,
		rec.Reference, rec.Gateway, rec.Amount, rec.Email, rec.Currency,
		rec.CheckoutURL, rec.Status, rec.Message, rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("save payment record: %w", err)
	}
	return nil
}

// Get retrieves a record by reference.
func (s *PostgresStore) Get(ctx context.Context, reference string) (Record, error) {
	query := fmt.Sprintf(`
		SELECT reference, gateway, amount, email, currency, checkout_url, status, message, created_at, updated_at
		FROM %s WHERE reference = $1
	`, s.tableName)

	var rec Record
	var checkoutURL, message sql.NullString
	err := s.db.QueryRowContext(ctx, query, reference).Scan(
		&rec.Reference, &rec.Gateway, &rec.Amount, &rec.Email, &rec.Currency,
		&checkoutURL, &rec.Status, &message, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, ErrNotFound
	}
	if err != nil {
		return Record{}, fmt.Errorf("get payment record: %w", err)
	}
	rec.CheckoutURL = checkoutURL.String
	rec.Message = message.String
	return rec, nil
}

// UpdateStatus transitions a record's status and message.
func (s *PostgresStore) UpdateStatus(ctx context.Context, reference, status, message string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = $2, message = $3, updated_at = $4 WHERE reference = $1
	`, s.tableName)

	res, err := s.db.ExecContext(ctx, query, reference, status, message, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns records ordered newest first, up to limit (0 = all).
func (s *PostgresStore) List(ctx context.Context, limit int) ([]Record, error) {
	query := fmt.Sprintf(`
		SELECT reference, gateway, amount, email, currency, checkout_url, status, message, created_at, updated_at
		FROM %s ORDER BY created_at DESC
	`, s.tableName)
	args := []any{}
	if limit > 0 {
		query += " LIMIT $1"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list payment records: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		var checkoutURL, message sql.NullString
		if err := rows.Scan(
			&rec.Reference, &rec.Gateway, &rec.Amount, &rec.Email, &rec.Currency,
			&checkoutURL, &rec.Status, &message, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan payment record: %w", err)
		}
		rec.CheckoutURL = checkoutURL.String
		rec.Message = message.String
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list payment records: %w", err)
	}
	return out, nil
}

// Driver returns the backing driver name.
func (s *PostgresStore) Driver() string { return "postgres" }

// Close closes the database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
