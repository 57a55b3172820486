package migrations

import (
	"io/fs"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	input := `-- leading comment
CREATE TABLE a (x Int64)
ENGINE = MergeTree
ORDER BY x;

-- second
CREATE TABLE b (y String) ENGINE = MergeTree ORDER BY y;
`
	stmts := splitStatements(input)
	if len(stmts) != 2 {
		t.Fatalf("expected 2 statements, got %d: %q", len(stmts), stmts)
	}
	if stmts[1] != "CREATE TABLE b (y String) ENGINE = MergeTree ORDER BY y" {
		t.Errorf("unexpected second statement: %q", stmts[1])
	}
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	if err := validateNoSemicolonInStrings("SELECT 'it''s fine';"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := validateNoSemicolonInStrings("SELECT 'a;b';"); err == nil {
		t.Error("expected error for semicolon inside string literal")
	}
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default@localhost:9000/indexer")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if db != "indexer" {
		t.Errorf("database: got %q, want indexer", db)
	}

	if _, err := databaseFromDSN("clickhouse://localhost:9000"); err == nil {
		t.Error("expected error for DSN without database")
	}
	if _, err := databaseFromDSN("clickhouse://localhost:9000/nft-stats"); err == nil {
		t.Error("expected error for database name with a dash")
	}
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := fs.ReadDir(PostgresFS, "postgres")
	if err != nil {
		t.Fatalf("read postgres migrations: %v", err)
	}
	if len(pg) != 3 {
		t.Errorf("expected 3 postgres migrations, got %d", len(pg))
	}

	ch, err := fs.ReadDir(ClickhouseFS, "clickhouse")
	if err != nil {
		t.Fatalf("read clickhouse migrations: %v", err)
	}
	for _, entry := range ch {
		data, err := fs.ReadFile(ClickhouseFS, "clickhouse/"+entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		if err := validateNoSemicolonInStrings(string(data)); err != nil {
			t.Errorf("%s: %v", entry.Name(), err)
		}
	}
}

func TestPendingMigrations(t *testing.T) {
	files := []string{"001_tokens.sql", "002_stats.sql", "003_marketplace.sql"}

	got := pendingMigrations(files, map[string]bool{"001_tokens.sql": true})
	if len(got) != 2 || got[0] != "002_stats.sql" || got[1] != "003_marketplace.sql" {
		t.Errorf("unexpected pending: %v", got)
	}

	if got := pendingMigrations(files, map[string]bool{
		"001_tokens.sql": true, "002_stats.sql": true, "003_marketplace.sql": true,
	}); len(got) != 0 {
		t.Errorf("expected nothing pending, got %v", got)
	}
}
