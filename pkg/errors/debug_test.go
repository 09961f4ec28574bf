package errors

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestDumpCollectsChainAndCode(t *testing.T) {
	err := fmt.Errorf("handler: %w", Wrap(CodeDependency, fmt.Errorf("redis down"), "persist cart"))

	dump := Dump(err)
	if dump.Code != CodeDependency || !dump.Retryable {
		t.Fatalf("expected retryable dependency code, got %+v", dump)
	}
	if len(dump.Chain) != 3 {
		t.Fatalf("expected 3 chain entries, got %d: %v", len(dump.Chain), dump.Chain)
	}
	if dump.Postgres != nil {
		t.Fatalf("expected no postgres details, got %+v", dump.Postgres)
	}
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "products_slug_key", TableName: "products"}
	dump := Dump(Wrap(CodeConflict, pgErr, "insert product"))
	if pg := dump.Postgres; pg == nil || pg.Code != "23505" || pg.Constraint != "products_slug_key" || pg.Table != "products" {
		t.Fatalf("unexpected pgx dump %+v", dump.Postgres)
	}
	if dump.Retryable {
		t.Fatalf("conflicts are not retryable")
	}

	pqErr := &pq.Error{Code: "23503", Table: "product_options", Column: "product_id"}
	dump = Dump(fmt.Errorf("save option: %w", pqErr))
	if pg := dump.Postgres; pg == nil || pg.Code != "23503" || pg.Table != "product_options" || pg.Column != "product_id" {
		t.Fatalf("unexpected pq dump %+v", dump.Postgres)
	}
}

func TestDumpFlagsTimeouts(t *testing.T) {
	dump := Dump(fmt.Errorf("load cart: %w", context.DeadlineExceeded))
	if !dump.Timeout {
		t.Fatalf("expected timeout flag")
	}
	if _, ok := dump.Fields()["timeout"]; !ok {
		t.Fatalf("expected timeout field, got %v", dump.Fields())
	}
}

func TestDumpFieldsOmitPostgresWhenAbsent(t *testing.T) {
	fields := Dump(New(CodeInternal, "boom")).Fields()
	if _, ok := fields["pg_code"]; ok {
		t.Fatalf("unexpected pg fields %v", fields)
	}
	if fields["error_code"] != CodeInternal {
		t.Fatalf("unexpected code field %v", fields["error_code"])
	}

	fields = Dump(&pgconn.PgError{Code: "40001"}).Fields()
	if fields["pg_code"] != "40001" {
		t.Fatalf("expected pg_code, got %v", fields)
	}
}

func TestDumpNil(t *testing.T) {
	if dump := Dump(nil); dump.TopMessage != "" || len(dump.Chain) != 0 {
		t.Fatalf("expected empty dump, got %+v", dump)
	}
}
