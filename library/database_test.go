package library

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tempDB(t *testing.T) *SQLiteBackend {
	t.Helper()
	dir := t.TempDir()
	db, err := NewSQLiteBackend(filepath.Join(dir, "test.db"), nil)
	if err != nil {
		t.Fatalf("new db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestSQLiteRoundTrip(t *testing.T) {
	db := tempDB(t)
	want := sampleSnapshot()
	if err := db.Save(want); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, report, err := db.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	assert.Equal(t, want, got)
	assert.Equal(t, 2, report.Loans)
	assert.Empty(t, report.Skipped)
}

func TestSQLiteEmpty(t *testing.T) {
	db := tempDB(t)
	got, report, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Books)
	assert.Empty(t, report.Skipped)
}

func TestSQLiteSaveReplacesRows(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.Save(sampleSnapshot()))
	require.NoError(t, db.Save(&Snapshot{Members: []Member{{ID: "M9", Name: "Solo"}}}))

	got, _, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, got.Books)
	assert.Equal(t, []Member{{ID: "M9", Name: "Solo"}}, got.Members)
	assert.Empty(t, got.Loans)
}

func TestSQLiteLargeSaveKeepsOrder(t *testing.T) {
	db := tempDB(t)
	snap := &Snapshot{}
	for i := 0; i < 2*insertBatchSize+7; i++ {
		id := fmt.Sprintf("B%04d", 2*insertBatchSize+7-i)
		snap.Books = append(snap.Books, Book{ID: id, Title: "T", Author: "A", TotalCopies: 1, AvailableCopies: 1})
	}
	require.NoError(t, db.Save(snap))

	got, _, err := db.Load()
	require.NoError(t, err)
	require.Len(t, got.Books, len(snap.Books))
	assert.Equal(t, snap.Books[0].ID, got.Books[0].ID)
	assert.Equal(t, snap.Books[len(snap.Books)-1].ID, got.Books[len(got.Books)-1].ID)
}

func TestSQLiteSkipsInvalidRows(t *testing.T) {
	db := tempDB(t)
	require.NoError(t, db.Save(sampleSnapshot()))
	if _, err := db.db.Exec(`INSERT INTO loans(seq,loan_id,book_id,member_id,borrow_date,due_date)
		VALUES (10,'L9','B1','M1','not-a-date','2024-01-01')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := db.db.Exec(`UPDATE books SET available_copies = 9 WHERE id = 'B2'`); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, report, err := db.Load()
	require.NoError(t, err)
	assert.Len(t, got.Books, 1)
	assert.Len(t, got.Loans, 2)
	require.Len(t, report.Skipped, 2)
	assert.Equal(t, "books", report.Skipped[0].Source)
	assert.Equal(t, "loans", report.Skipped[1].Source)
	assert.Equal(t, 10, report.Skipped[1].Line)
}

func TestSQLiteReopenKeepsSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "lib.db")
	db, err := NewSQLiteBackend(path, nil)
	require.NoError(t, err)
	require.NoError(t, db.Save(sampleSnapshot()))
	require.NoError(t, db.Close())

	db, err = NewSQLiteBackend(path, nil)
	require.NoError(t, err)
	defer db.Close()

	var version string
	require.NoError(t, db.db.Get(&version, `SELECT value FROM meta WHERE key='schema_version'`))
	assert.Equal(t, fmt.Sprint(schemaVersion), version)

	got, _, err := db.Load()
	require.NoError(t, err)
	assert.Len(t, got.Books, 2)
}

func TestMigrateCSVToSQLite(t *testing.T) {
	src := NewCSVBackend(t.TempDir(), nil)
	require.NoError(t, src.Save(sampleSnapshot()))
	dst := tempDB(t)

	report, err := Migrate(src, dst)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Books)

	got, _, err := dst.Load()
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot(), got)
}

func TestSQLiteStoresTextByteForByte(t *testing.T) {
	db := tempDB(t)
	want := &Snapshot{
		Books: []Book{
			{ID: "B1", Title: "\x00nul", Author: "O'Brien", TotalCopies: 1, AvailableCopies: 1},
			{ID: "B2", Title: "bad\xffutf8", Author: "-- ; DROP", TotalCopies: 2, AvailableCopies: 0},
		},
		Members: []Member{{ID: "M\x00", Name: "tab\there", Email: "\xfe\xff"}},
	}
	require.NoError(t, db.Save(want))
	// A second save must not be blocked by the first one's contents.
	require.NoError(t, db.Save(want))

	got, report, err := db.Load()
	require.NoError(t, err)
	assert.Empty(t, report.Skipped)
	assert.Equal(t, want.Books, got.Books)
	assert.Equal(t, want.Members, got.Members)
}
