package library

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newManager(t *testing.T, dir string, opts ...LendingOption) *LibraryManager {
	t.Helper()
	mgr, err := NewLibraryManager(NewCSVBackend(dir, nil), nil, opts...)
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func TestManagerSaveAndReload(t *testing.T) {
	dir := t.TempDir()
	clock := &testClock{now: testStart}
	mgr := newManager(t, dir, WithClock(clock.Now))

	_, err := mgr.AddBook("B1", "Dune", "Herbert", 2)
	require.NoError(t, err)
	_, err = mgr.AddMember("M1", "Ada", "ada@example.com")
	require.NoError(t, err)
	loan, err := mgr.Borrow("M1", "B1")
	require.NoError(t, err)
	require.NoError(t, mgr.Save())

	reloaded := newManager(t, dir, WithClock(clock.Now))
	assert.Equal(t, LoadReport{Books: 1, Members: 1, Loans: 1}, reloaded.LoadReport())
	assert.Equal(t, mgr.ListBooks(), reloaded.ListBooks())
	assert.Equal(t, mgr.ListMembers(), reloaded.ListMembers())
	assert.Equal(t, []Loan{loan}, reloaded.ActiveLoans())

	// The sequence restarts after a reload but never reuses an id.
	next, err := reloaded.Borrow("M1", "B1")
	require.NoError(t, err)
	assert.NotEqual(t, loan.ID, next.ID)
}

func TestManagerContinuesAfterLoadFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, LoansFile), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, BooksFile), []byte("B1,Dune,Herbert,1,1\n"), 0o644))

	mgr, err := NewLibraryManager(NewCSVBackend(dir, nil), nil)
	require.ErrorIs(t, err, ErrStorage)
	require.NotNil(t, mgr)

	assert.Len(t, mgr.ListBooks(), 1)
	_, err = mgr.AddMember("M1", "Ada", "")
	assert.NoError(t, err, "work continues in memory")

	err = mgr.Save()
	assert.ErrorIs(t, err, ErrStorage, "loans.csv is still a directory")
}

func TestManagerOverdueAndHistory(t *testing.T) {
	clock := &testClock{now: testStart}
	mgr := newManager(t, t.TempDir(), WithClock(clock.Now), WithLoanDays(7))
	_, _ = mgr.AddBook("B1", "Dune", "Herbert", 1)
	_, _ = mgr.AddMember("M1", "Ada", "")

	loan, err := mgr.Borrow("M1", "B1")
	require.NoError(t, err)
	assert.Len(t, mgr.LowAvailability(0), 1)

	clock.advance(8)
	overdue := mgr.Overdue(mgr.Today())
	require.Len(t, overdue, 1)
	assert.Equal(t, loan.ID, overdue[0].ID)

	r, err := mgr.GiveBack("B1")
	require.NoError(t, err)
	assert.Equal(t, 1, r.DaysLate)
	assert.Empty(t, mgr.Overdue(mgr.Today()))

	hist, err := mgr.History("M1")
	require.NoError(t, err)
	assert.Len(t, hist, 1)
	assert.Len(t, mgr.AllLoans(), 1)
	assert.Empty(t, mgr.ActiveLoans())
}

func TestOpenLibrarySQLite(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Backend = BackendSQLite

	mgr, err := OpenLibrary(cfg, nil)
	require.NoError(t, err)
	_, err = mgr.AddBook("B1", "Dune", "Herbert", 1)
	require.NoError(t, err)
	require.NoError(t, mgr.Save())
	require.NoError(t, mgr.Close())

	mgr, err = OpenLibrary(cfg, nil)
	require.NoError(t, err)
	defer mgr.Close()
	b, err := mgr.GetBook("B1")
	require.NoError(t, err)
	assert.Equal(t, "Dune", b.Title)

	_, err = os.Stat(cfg.DBPath())
	assert.NoError(t, err)
}

func TestOpenLibraryUnknownBackend(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Backend = "xml"
	mgr, err := OpenLibrary(cfg, nil)
	assert.Nil(t, mgr)
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("want ErrInvalidInput, got %v", err)
	}
}
