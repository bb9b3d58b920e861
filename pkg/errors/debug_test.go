package errors

import (
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

func TestDumpExtractsPgxFields(t *testing.T) {
	pgErr := &pgconn.PgError{
		Code:           "23503",
		ConstraintName: "cart_items_cart_id_fkey",
		TableName:      "cart_items",
		Message:        "insert or update on table violates foreign key constraint",
	}
	err := Wrap(CodePersistence, fmt.Errorf("create cart item: %w", pgErr), "add cart item")

	dump := Dump(err)
	if dump.Code != CodePersistence {
		t.Fatalf("expected PERSISTENCE_ERROR, got %s", dump.Code)
	}
	if dump.DB == nil || dump.DB.Code != "23503" || dump.DB.Constraint != "cart_items_cart_id_fkey" || dump.DB.Table != "cart_items" {
		t.Fatalf("unexpected db fields: %+v", dump.DB)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
}

func TestDumpExtractsPqFields(t *testing.T) {
	err := fmt.Errorf("clear cart: %w", &pq.Error{Code: "40001", Table: "cart_items", Message: "could not serialize access"})

	dump := Dump(err)
	if dump.DB == nil || dump.DB.Engine != "postgres" || dump.DB.Code != "40001" || dump.DB.Table != "cart_items" {
		t.Fatalf("unexpected pq fields: %+v", dump.DB)
	}
	if dump.Code != "" {
		t.Fatalf("untyped errors should not carry a code, got %s", dump.Code)
	}
}

func TestDumpExtractsSQLiteCode(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	dump := Dump(fmt.Errorf("create cart: %w", liteErr))

	if dump.DB == nil || dump.DB.Engine != "sqlite" || dump.DB.Code != "2067" {
		t.Fatalf("unexpected sqlite fields: %+v", dump.DB)
	}
}

func TestDumpFieldsOmitEmptyParts(t *testing.T) {
	fields := Dump(New(CodeNotFound, "cart item not found")).Fields()
	if fields["error_code"] != "NOT_FOUND" {
		t.Fatalf("expected error code field, got %v", fields)
	}
	if _, ok := fields["db_error"]; ok {
		t.Fatalf("db_error should be omitted without a driver error")
	}
	if _, ok := fields["error_chain"]; ok {
		t.Fatalf("single-entry chain should be omitted")
	}
}

func TestDumpNil(t *testing.T) {
	if got := Dump(nil); got.TopMessage != "" || got.Chain != nil || got.DB != nil {
		t.Fatalf("expected empty dump, got %+v", got)
	}
}
