package snowflake

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

type sqlOrder struct {
	ID        ID
	Reference string
	Parent    ID
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// :memory: databases are per connection
	db.SetMaxOpenConns(1)

	_, err = db.Exec(`
		CREATE TABLE orders (
			id        INTEGER PRIMARY KEY,
			reference TEXT NOT NULL,
			parent    TEXT
		)
	`)
	if err != nil {
		t.Fatalf("create table error = %v", err)
	}
	return db
}

func TestIDSQLRoundTrip(t *testing.T) {
	db := openTestDB(t)
	gen, err := New(DefaultConfig(12))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ids, err := gen.NextBatch(context.Background(), 50)
	if err != nil {
		t.Fatalf("NextBatch() error = %v", err)
	}

	for i, id := range ids {
		// parent is stored as TEXT to exercise the string scan path
		_, err := db.Exec("INSERT INTO orders (id, reference, parent) VALUES (?, ?, ?)",
			id, id.Base62(), id.String())
		if err != nil {
			t.Fatalf("insert %d error = %v", i, err)
		}
	}

	rows, err := db.Query("SELECT id, reference, parent FROM orders ORDER BY id")
	if err != nil {
		t.Fatalf("query error = %v", err)
	}
	defer rows.Close()

	var got []sqlOrder
	for rows.Next() {
		var o sqlOrder
		if err := rows.Scan(&o.ID, &o.Reference, &o.Parent); err != nil {
			t.Fatalf("Scan() error = %v", err)
		}
		got = append(got, o)
	}
	if err := rows.Err(); err != nil {
		t.Fatalf("rows error = %v", err)
	}

	if len(got) != len(ids) {
		t.Fatalf("got %d rows, want %d", len(got), len(ids))
	}
	// ORDER BY id must match generation order
	for i, o := range got {
		if o.ID != ids[i] {
			t.Errorf("row %d id = %d, want %d", i, o.ID, ids[i])
		}
		if o.Parent != ids[i] {
			t.Errorf("row %d parent = %d, want %d", i, o.Parent, ids[i])
		}
		if back, err := ParseBase62(o.Reference); err != nil || back != o.ID {
			t.Errorf("row %d reference %q decodes to %d, %v", i, o.Reference, back, err)
		}
	}
}

func TestIDSQLNull(t *testing.T) {
	db := openTestDB(t)

	if _, err := db.Exec("INSERT INTO orders (id, reference, parent) VALUES (1, 'r', NULL)"); err != nil {
		t.Fatalf("insert error = %v", err)
	}

	parent := ID(5)
	if err := db.QueryRow("SELECT parent FROM orders WHERE id = 1").Scan(&parent); err != nil {
		t.Fatalf("Scan() error = %v", err)
	}
	if parent != 0 {
		t.Errorf("parent = %d, want 0 for NULL", parent)
	}
}

func TestIDSQLRejectsUnsignedOverflow(t *testing.T) {
	db := openTestDB(t)

	_, err := db.Exec("INSERT INTO orders (id, reference) VALUES (?, 'r')", ID(1<<63))
	if err == nil {
		t.Fatal("insert of an ID above MaxInt64 succeeded, want error")
	}
}
