package postgres

import (
	"database/sql"
	"testing"
	"time"

	"github.com/probegrid/probegrid/migrations"
)

// newTestDB opens an in-memory SQLite database with the full schema applied.
// Kept inside the package so the repository tests can reach unexported
// helpers without an import cycle through a shared test package.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	db.SetMaxOpenConns(1)

	if err := RunMigrations(db, migrations.GetFS()); err != nil {
		t.Fatalf("Failed to apply test schema: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestRebindPositional(t *testing.T) {
	cases := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "single placeholder",
			query: "SELECT 1 FROM alerts WHERE id = ?",
			want:  "SELECT 1 FROM alerts WHERE id = $1",
		},
		{
			name:  "many placeholders numbered in order",
			query: "UPDATE alerts SET title = ?, status = ? WHERE tenant_id = ? AND id = ? AND version = ?",
			want:  "UPDATE alerts SET title = $1, status = $2 WHERE tenant_id = $3 AND id = $4 AND version = $5",
		},
		{
			name:  "no placeholders untouched",
			query: "SELECT DISTINCT tenant_id FROM alerts",
			want:  "SELECT DISTINCT tenant_id FROM alerts",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := rebindPositional(tc.query); got != tc.want {
				t.Errorf("rebindPositional() = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestWrapDB_DriverPlaceholders(t *testing.T) {
	query := "SELECT 1 FROM alerts WHERE tenant_id = ? AND id = ?"

	// sqlite takes ? natively
	lite := newTestDB(t)
	if got := wrapDB(lite).bind(query); got != query {
		t.Errorf("sqlite bind rewrote query: %q", got)
	}

	// postgres only parses $N ordinals, so the same query must be rewritten.
	// sql.Open does not dial, so no server is needed to check the binding.
	pg, err := sql.Open("postgres", "host=127.0.0.1 dbname=probegrid sslmode=disable")
	if err != nil {
		t.Fatalf("sql.Open(postgres) error = %v", err)
	}
	defer pg.Close()

	want := "SELECT 1 FROM alerts WHERE tenant_id = $1 AND id = $2"
	if got := wrapDB(pg).bind(query); got != want {
		t.Errorf("postgres bind = %q, want %q", got, want)
	}
}

func TestParseTime(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)
	if got := parseTime(fmtTime(now)); !got.Equal(now) {
		t.Errorf("parseTime(fmtTime()) = %v, want %v", got, now)
	}

	// A corrupt stored value decodes as the zero time rather than a panic or
	// a half-parsed timestamp
	if got := parseTime("not-a-timestamp"); !got.IsZero() {
		t.Errorf("parseTime(corrupt) = %v, want zero time", got)
	}
	if got := parseTimePtr(sql.NullString{Valid: true, String: "garbage"}); got != nil {
		t.Errorf("parseTimePtr(corrupt) = %v, want nil", got)
	}
	if got := parseTimePtr(sql.NullString{}); got != nil {
		t.Errorf("parseTimePtr(null) = %v, want nil", got)
	}
}
