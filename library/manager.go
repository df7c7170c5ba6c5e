package library

import (
	"fmt"
	"log/slog"
	"time"
)

// LibraryManager is a thin facade over the record store and the three
// managers, keeping front-end code simple. It owns the Backend.
type LibraryManager struct {
	backend Backend
	store   *Store
	catalog *Catalog
	lending *Lending
	reports *Reports
	log     *slog.Logger
	loaded  *LoadReport
}

// NewLibraryManager loads every record from backend. When the backend reports
// a storage failure the manager is still returned, holding whatever could be
// read, together with the error, so the caller can carry on in memory.
func NewLibraryManager(backend Backend, logger *slog.Logger, opts ...LendingOption) (*LibraryManager, error) {
	logger = orDiscard(logger)
	snap, report, loadErr := backend.Load()
	if snap == nil {
		snap = &Snapshot{}
	}
	if report == nil {
		report = &LoadReport{}
	}
	if loadErr != nil {
		logger.Error("load failed, continuing with the records read so far", "error", loadErr)
	}

	store := NewStore(snap)
	lm := &LibraryManager{
		backend: backend,
		store:   store,
		catalog: NewCatalog(store, logger),
		lending: NewLending(store, logger, opts...),
		reports: NewReports(store),
		log:     logger,
		loaded:  report,
	}
	return lm, loadErr
}

// OpenLibrary builds the backend described by cfg and loads it.
func OpenLibrary(cfg Config, logger *slog.Logger) (*LibraryManager, error) {
	backend, err := cfg.OpenBackend(cfg.Backend, logger)
	if err != nil {
		return nil, err
	}
	return NewLibraryManager(backend, logger, cfg.LendingOptions()...)
}

// LoadReport describes the initial load.
func (lm *LibraryManager) LoadReport() LoadReport { return *lm.loaded }

// Save flushes every record to the backend, overwriting what was there.
func (lm *LibraryManager) Save() error {
	if err := lm.backend.Save(lm.store.Snapshot()); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Close releases the backend without saving.
func (lm *LibraryManager) Close() error { return lm.backend.Close() }

// Today is the lending clock's current date.
func (lm *LibraryManager) Today() time.Time { return lm.lending.Today() }

// ------------------ Book helpers ------------------

func (lm *LibraryManager) AddBook(id, title, author string, totalCopies int) (Book, error) {
	return lm.catalog.AddBook(id, title, author, totalCopies)
}

func (lm *LibraryManager) UpdateBook(id string, u BookUpdate) (Book, error) {
	return lm.catalog.UpdateBook(id, u)
}

func (lm *LibraryManager) RemoveBook(id string) error { return lm.catalog.RemoveBook(id) }

func (lm *LibraryManager) GetBook(id string) (Book, error) { return lm.catalog.GetBook(id) }

func (lm *LibraryManager) SearchBooks(keyword string) []Book {
	return lm.catalog.SearchBooks(keyword)
}

func (lm *LibraryManager) ListBooks() []Book { return lm.catalog.ListBooks() }

// ------------------ Member helpers ------------------

func (lm *LibraryManager) AddMember(id, name, email string) (Member, error) {
	return lm.catalog.AddMember(id, name, email)
}

func (lm *LibraryManager) RemoveMember(id string) error { return lm.catalog.RemoveMember(id) }

func (lm *LibraryManager) GetMember(id string) (Member, error) { return lm.catalog.GetMember(id) }

func (lm *LibraryManager) SearchMembers(keyword string) []Member {
	return lm.catalog.SearchMembers(keyword)
}

func (lm *LibraryManager) ListMembers() []Member { return lm.catalog.ListMembers() }

// ------------------ Circulation ------------------

func (lm *LibraryManager) Borrow(memberID, bookID string) (Loan, error) {
	return lm.lending.Borrow(memberID, bookID)
}

// GiveBack returns the copy matched by loan id or book id.
func (lm *LibraryManager) GiveBack(identifier string) (Return, error) {
	return lm.lending.GiveBack(identifier)
}

func (lm *LibraryManager) ActiveLoans() []Loan { return lm.lending.ListActive() }

func (lm *LibraryManager) AllLoans() []Loan { return lm.lending.ListAll() }

// ------------------ Reports ------------------

func (lm *LibraryManager) LowAvailability(threshold int) []Book {
	return lm.reports.LowAvailability(threshold)
}

func (lm *LibraryManager) Overdue(today time.Time) []Loan { return lm.reports.Overdue(today) }

func (lm *LibraryManager) History(memberID string) ([]Loan, error) {
	return lm.reports.History(memberID)
}
