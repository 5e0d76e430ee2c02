package incident

import (
	"context"
	"database/sql/driver"
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"CyberGuard/deploy/migrations"
	xerrors "CyberGuard/internal/errors"
)

func TestMigrateSkipsAppliedVersions(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_create_incidents.sql": {Data: []byte("CREATE TABLE incidents (id CHAR(36));")},
		"0002_add_index.sql":        {Data: []byte("-- 按时间查询\nCREATE INDEX idx ON incidents (id);")},
		"README.md":                 {Data: []byte("ignored")},
	}

	db, drv := newMockDB(t, []mockOperation{
		execOp(schemaTableSQL, mockResult{}),
		queryOp(appliedVersionsSQL, mockRowsData{
			columns: []string{"version"},
			values:  [][]driver.Value{{"0001"}},
		}),
		beginOp(),
		execOp(`CREATE INDEX idx ON incidents (id)`, mockResult{}),
		execOp(recordVersionSQL, mockResult{rowsAffected: 1}),
		commitOp(),
	})
	defer drv.assertConsumed(t)
	defer db.Close()

	if err := migrate(context.Background(), db, fsys); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
}

func TestMigrateRollsBackFailedStep(t *testing.T) {
	fsys := fstest.MapFS{
		"0001_create_incidents.sql": {Data: []byte("CREATE TABLE incidents (id CHAR(36));")},
	}

	failing := execOp(`CREATE TABLE incidents (id CHAR(36))`, mockResult{})
	failing.err = errors.New("syntax error")
	db, drv := newMockDB(t, []mockOperation{
		execOp(schemaTableSQL, mockResult{}),
		queryOp(appliedVersionsSQL, mockRowsData{columns: []string{"version"}}),
		beginOp(),
		failing,
		rollbackOp(),
	})
	defer drv.assertConsumed(t)
	defer db.Close()

	err := migrate(context.Background(), db, fsys)
	if xerrors.CodeOf(err) != xerrors.CodeStorageFailure {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if e, _ := xerrors.From(err); e.Metadata()["version"] != "0001" {
		t.Fatalf("expected failing version in metadata: %v", e.Metadata())
	}
}

func TestReadSchema(t *testing.T) {
	steps, err := readSchema(migrations.Files)
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if steps[0].version != "0001" || !strings.Contains(steps[0].sql[0], "incidents") {
		t.Fatalf("unexpected migration: %+v", steps[0])
	}

	steps, err = readSchema(fstest.MapFS{
		"0010_b.sql": {Data: []byte("SELECT 2;")},
		"0002_a.sql": {Data: []byte("SELECT 1;\n-- trailing note\nSELECT 3;")},
		"0003_c.sql": {Data: []byte("-- only a comment\n")},
	})
	if err != nil {
		t.Fatalf("read schema: %v", err)
	}
	if len(steps) != 2 || steps[0].version != "0002" || steps[1].version != "0010" {
		t.Fatalf("unexpected order: %+v", steps)
	}
	if len(steps[0].sql) != 2 || steps[0].sql[1] != "SELECT 3" {
		t.Fatalf("unexpected statements: %q", steps[0].sql)
	}
}

func TestReadSchemaRejectsBadNames(t *testing.T) {
	if _, err := readSchema(fstest.MapFS{"init.sql": {Data: []byte("SELECT 1;")}}); err == nil {
		t.Fatalf("expected error for missing version prefix")
	}
	if _, err := readSchema(fstest.MapFS{
		"0001_a.sql": {Data: []byte("SELECT 1;")},
		"0001_b.sql": {Data: []byte("SELECT 2;")},
	}); err == nil {
		t.Fatalf("expected error for duplicate version")
	}
	if _, err := readSchema(fstest.MapFS{}); err == nil {
		t.Fatalf("expected error for empty migration set")
	}
}
