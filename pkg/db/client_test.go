package db

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/innkeeper-backend/pkg/config"
)

type testModel struct {
	ID   int
	Name string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&testModel{}); err != nil {
		t.Fatalf("failed to migrate sqlite: %v", err)
	}
	return conn
}

func TestWithTx_CommitsAndRollbacks(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}

	ctx := context.Background()
	if err := client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&testModel{Name: "committed"}).Error
	}); err != nil {
		t.Fatalf("WithTx commit failed: %v", err)
	}

	var count int64
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 record, got %d", count)
	}

	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&testModel{Name: "rolled"}).Error; err != nil {
			return err
		}
		return errors.New("boom")
	})
	if err == nil {
		t.Fatal("expected WithTx to return an error")
	}
	if err := db.Model(&testModel{}).Count(&count).Error; err != nil {
		t.Fatalf("count failed after rollback: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected rollback to leave 1 record, got %d", count)
	}
}

func TestPing(t *testing.T) {
	db := newTestDB(t)
	client := &Client{conn: db}
	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestNew_OpensSQLiteWhenConfigured(t *testing.T) {
	client, err := New(context.Background(), config.DBConfig{
		Driver: DriverSQLite,
		DSN:    "file:client_new_" + uuid.NewString() + "?mode=memory&cache=shared",
	}, nil)
	if err != nil {
		t.Fatalf("New() returned error: %v", err)
	}
	defer client.Close()

	if err := client.Ping(context.Background()); err != nil {
		t.Fatalf("unexpected ping error: %v", err)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	conn := newTestDB(t)
	type uniqueModel struct {
		ID   int
		Code string `gorm:"uniqueIndex"`
	}
	if err := conn.AutoMigrate(&uniqueModel{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := conn.Create(&uniqueModel{Code: "A"}).Error; err != nil {
		t.Fatalf("first insert: %v", err)
	}
	err := conn.Create(&uniqueModel{Code: "A"}).Error
	if !IsUniqueViolation(err, "") {
		t.Fatalf("expected unique violation, got %v", err)
	}
	if IsUniqueViolation(errors.New("boom"), "") {
		t.Fatal("plain errors are not unique violations")
	}
}

func TestSQLStateClassifiers(t *testing.T) {
	overlap := fmt.Errorf("create reservation: %w", &pgconn.PgError{Code: "23P01", ConstraintName: "reservations_no_overlap"})
	if SQLState(overlap) != "23P01" || !IsExclusionViolation(overlap) {
		t.Fatalf("expected exclusion violation from pgx error")
	}
	if IsUniqueViolation(overlap, "") {
		t.Fatalf("exclusion is not a unique violation")
	}

	dup := &pq.Error{Code: "23505", Constraint: "staff_username_key"}
	if !IsUniqueViolation(dup, "") {
		t.Fatalf("expected unique violation from pq error")
	}

	if !IsRetryable(&pq.Error{Code: "40001"}) || !IsRetryable(&pgconn.PgError{Code: "40P01"}) {
		t.Fatalf("serialization failures and deadlocks are retryable")
	}
	if IsRetryable(errors.New("boom")) || SQLState(nil) != "" || IsExclusionViolation(nil) {
		t.Fatalf("plain errors carry no sql state")
	}
}
