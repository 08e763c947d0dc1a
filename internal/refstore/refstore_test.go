package refstore

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/paywith/paywith/internal/config"
)

// storeFactories returns the drivers exercisable without external services.
func storeFactories(t *testing.T) map[string]func() Store {
	t.Helper()
	return map[string]func() Store{
		"memory": func() Store { return NewMemoryStore() },
		"file": func() Store {
			s, err := NewFileStore(filepath.Join(t.TempDir(), "payments.json"))
			if err != nil {
				t.Fatalf("NewFileStore: %v", err)
			}
			return s
		},
	}
}

func sampleRecord(reference string) Record {
	return Record{
		Gateway:     "paystack",
		Reference:   reference,
		Amount:      1500,
		Email:       "customer@example.com",
		Currency:    "NGN",
		CheckoutURL: "https://checkout.paystack.com/" + reference,
		Status:      StatusPending,
	}
}

func TestStoreLifecycle(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			rec := sampleRecord("REF001")
			if err := store.Save(ctx, rec); err != nil {
				t.Fatalf("Save: %v", err)
			}

			got, err := store.Get(ctx, "REF001")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			if got.Gateway != "paystack" || got.Amount != 1500 || got.Email != "customer@example.com" {
				t.Errorf("unexpected record: %+v", got)
			}
			if got.Status != StatusPending {
				t.Errorf("status = %q, want pending", got.Status)
			}
			if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
				t.Error("timestamps should be populated")
			}

			if err := store.UpdateStatus(ctx, "REF001", StatusPaid, "Paystack: Successful"); err != nil {
				t.Fatalf("UpdateStatus: %v", err)
			}
			got, err = store.Get(ctx, "REF001")
			if err != nil {
				t.Fatalf("Get after update: %v", err)
			}
			if got.Status != StatusPaid {
				t.Errorf("status = %q, want paid", got.Status)
			}
			if got.Message != "Paystack: Successful" {
				t.Errorf("message = %q", got.Message)
			}
		})
	}
}

func TestStoreNotFound(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
				t.Errorf("Get missing: err = %v, want ErrNotFound", err)
			}
			if err := store.UpdateStatus(ctx, "missing", StatusPaid, ""); !errors.Is(err, ErrNotFound) {
				t.Errorf("UpdateStatus missing: err = %v, want ErrNotFound", err)
			}
		})
	}
}

func TestStoreSavePreservesCreatedAt(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			rec := sampleRecord("REF002")
			if err := store.Save(ctx, rec); err != nil {
				t.Fatal(err)
			}
			first, _ := store.Get(ctx, "REF002")

			time.Sleep(10 * time.Millisecond)

			rec.Status = StatusPaid
			if err := store.Save(ctx, rec); err != nil {
				t.Fatal(err)
			}
			second, _ := store.Get(ctx, "REF002")

			if !second.CreatedAt.Equal(first.CreatedAt) {
				t.Errorf("CreatedAt changed on re-save: %v -> %v", first.CreatedAt, second.CreatedAt)
			}
			if !second.UpdatedAt.After(first.UpdatedAt) {
				t.Errorf("UpdatedAt not advanced: %v -> %v", first.UpdatedAt, second.UpdatedAt)
			}
		})
	}
}

func TestStoreList(t *testing.T) {
	for name, factory := range storeFactories(t) {
		t.Run(name, func(t *testing.T) {
			store := factory()
			defer store.Close()
			ctx := context.Background()

			for _, ref := range []string{"A1", "A2", "A3"} {
				rec := sampleRecord(ref)
				rec.CreatedAt = time.Now().UTC().Add(-time.Duration(len(ref)) * time.Minute)
				if err := store.Save(ctx, rec); err != nil {
					t.Fatal(err)
				}
				time.Sleep(2 * time.Millisecond)
			}

			all, err := store.List(ctx, 0)
			if err != nil {
				t.Fatalf("List: %v", err)
			}
			if len(all) != 3 {
				t.Fatalf("len(all) = %d, want 3", len(all))
			}
			for i := 1; i < len(all); i++ {
				if all[i].CreatedAt.After(all[i-1].CreatedAt) {
					t.Error("records not ordered newest first")
				}
			}

			limited, err := store.List(ctx, 2)
			if err != nil {
				t.Fatalf("List limited: %v", err)
			}
			if len(limited) != 2 {
				t.Errorf("len(limited) = %d, want 2", len(limited))
			}
		})
	}
}

func TestStoreRejectsInvalidRecords(t *testing.T) {
	store := NewMemoryStore()
	defer store.Close()
	ctx := context.Background()

	if err := store.Save(ctx, Record{Gateway: "paystack"}); err == nil {
		t.Error("expected error for missing reference")
	}
	if err := store.Save(ctx, Record{Reference: "R1"}); err == nil {
		t.Error("expected error for missing gateway")
	}
}

func TestFileStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payments.json")
	ctx := context.Background()

	first, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Save(ctx, sampleRecord("PERSIST1")); err != nil {
		t.Fatal(err)
	}
	if err := first.Close(); err != nil {
		t.Fatal(err)
	}

	second, err := NewFileStore(path)
	if err != nil {
		t.Fatal(err)
	}
	defer second.Close()

	got, err := second.Get(ctx, "PERSIST1")
	if err != nil {
		t.Fatalf("Get after reopen: %v", err)
	}
	if got.Amount != 1500 || got.Gateway != "paystack" {
		t.Errorf("unexpected record after reopen: %+v", got)
	}
}

func TestNewStoreSelectsDriver(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.StorageConfig
		wantErr bool
		driver  string
	}{
		{name: "memory", cfg: config.StorageConfig{Driver: "memory"}, driver: "memory"},
		{name: "empty defaults to memory", cfg: config.StorageConfig{}, driver: "memory"},
		{name: "file", cfg: config.StorageConfig{Driver: "file", FilePath: filepath.Join(t.TempDir(), "p.json")}, driver: "file"},
		{name: "postgres without url", cfg: config.StorageConfig{Driver: "postgres"}, wantErr: true},
		{name: "mongodb without url", cfg: config.StorageConfig{Driver: "mongodb"}, wantErr: true},
		{name: "unknown", cfg: config.StorageConfig{Driver: "cassandra"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStore(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStore: %v", err)
			}
			defer store.Close()
			if store.Driver() != tt.driver {
				t.Errorf("Driver() = %q, want %q", store.Driver(), tt.driver)
			}
		})
	}
}
