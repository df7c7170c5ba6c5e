package library

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const dialectSQLite = "sqlite3"

// SQLiteBackend keeps the record set in a SQLite database. Each table has a
// seq column that preserves insertion order across saves.
type SQLiteBackend struct {
	db  *sqlx.DB
	log *slog.Logger
}

// NewSQLiteBackend opens (or creates) the SQLite database at dbPath and
// applies schema migrations.
func NewSQLiteBackend(dbPath string, logger *slog.Logger) (*SQLiteBackend, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("%w: create db dir: %w", ErrStorage, err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000", dbPath)
	db, err := sqlx.Open(dialectSQLite, dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: open sqlite: %w", ErrStorage, err)
	}

	if err := applyMigrations(db.DB); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %w", ErrStorage, err)
	}
	return &SQLiteBackend{db: db, log: orDiscard(logger)}, nil
}

// Close closes the DB.
func (d *SQLiteBackend) Close() error { return d.db.Close() }

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// No foreign keys: loans keep their book and member ids after removal.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            seq INTEGER PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            total_copies INTEGER NOT NULL,
            available_copies INTEGER NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS members (
            seq INTEGER PRIMARY KEY,
            id TEXT NOT NULL UNIQUE,
            name TEXT NOT NULL,
            email TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS loans (
            seq INTEGER PRIMARY KEY,
            loan_id TEXT NOT NULL UNIQUE,
            book_id TEXT NOT NULL,
            member_id TEXT NOT NULL,
            borrow_date TEXT NOT NULL,
            due_date TEXT NOT NULL,
            return_date TEXT
        );`,
	}
	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
            ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, strconv.Itoa(schemaVersion)); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Load
// ---------------------------------------------------------------------------

type bookRow struct {
	Seq             int64  `db:"seq"`
	ID              string `db:"id"`
	Title           string `db:"title"`
	Author          string `db:"author"`
	TotalCopies     int64  `db:"total_copies"`
	AvailableCopies int64  `db:"available_copies"`
}

type memberRow struct {
	Seq   int64  `db:"seq"`
	ID    string `db:"id"`
	Name  string `db:"name"`
	Email string `db:"email"`
}

type loanRow struct {
	Seq        int64          `db:"seq"`
	LoanID     string         `db:"loan_id"`
	BookID     string         `db:"book_id"`
	MemberID   string         `db:"member_id"`
	BorrowDate string         `db:"borrow_date"`
	DueDate    string         `db:"due_date"`
	ReturnDate sql.NullString `db:"return_date"`
}

// Load reads all rows ordered by seq. Rows that fail validation are skipped
// and listed in the report.
func (d *SQLiteBackend) Load() (*Snapshot, *LoadReport, error) {
	var (
		books   []bookRow
		members []memberRow
		loans   []loanRow
	)
	if err := d.db.Select(&books, `SELECT seq,id,title,author,total_copies,available_copies FROM books ORDER BY seq`); err != nil {
		return nil, nil, fmt.Errorf("%w: load books: %w", ErrStorage, err)
	}
	if err := d.db.Select(&members, `SELECT seq,id,name,email FROM members ORDER BY seq`); err != nil {
		return nil, nil, fmt.Errorf("%w: load members: %w", ErrStorage, err)
	}
	if err := d.db.Select(&loans, `SELECT seq,loan_id,book_id,member_id,borrow_date,due_date,return_date FROM loans ORDER BY seq`); err != nil {
		return nil, nil, fmt.Errorf("%w: load loans: %w", ErrStorage, err)
	}

	p := newRecordParser()
	report := &LoadReport{}
	accept := func(table string, seq int64, err error, count *int) {
		if err != nil {
			d.log.Warn("skipping malformed row", "table", table, "seq", seq, "error", err)
			report.Skipped = append(report.Skipped, SkippedRecord{Source: table, Line: int(seq), Err: err})
			return
		}
		*count++
	}
	for _, r := range books {
		err := p.book([]string{r.ID, r.Title, r.Author,
			strconv.FormatInt(r.TotalCopies, 10), strconv.FormatInt(r.AvailableCopies, 10)})
		accept("books", r.Seq, err, &report.Books)
	}
	for _, r := range members {
		accept("members", r.Seq, p.member([]string{r.ID, r.Name, r.Email}), &report.Members)
	}
	for _, r := range loans {
		err := p.loan([]string{r.LoanID, r.BookID, r.MemberID, r.BorrowDate, r.DueDate, r.ReturnDate.String})
		accept("loans", r.Seq, err, &report.Loans)
	}

	d.log.Info("loaded records", "books", report.Books, "members", report.Members,
		"loans", report.Loans, "skipped", len(report.Skipped))
	return &p.snap, report, nil
}

// ---------------------------------------------------------------------------
// Save
// ---------------------------------------------------------------------------

// Save replaces every row with the contents of s in a single transaction.
func (d *SQLiteBackend) Save(s *Snapshot) error {
	tx, err := d.db.Beginx()
	if err != nil {
		return fmt.Errorf("%w: begin: %w", ErrStorage, err)
	}
	defer tx.Rollback()

	for _, table := range []string{"loans", "members", "books"} {
		if _, err := tx.Exec(`DELETE FROM ` + table); err != nil {
			return fmt.Errorf("%w: clear %s: %w", ErrStorage, table, err)
		}
	}

	books := make([]interface{}, 0, len(s.Books))
	for i, b := range s.Books {
		books = append(books, goqu.Record{
			"seq": i + 1, "id": b.ID, "title": b.Title, "author": b.Author,
			"total_copies": b.TotalCopies, "available_copies": b.AvailableCopies,
		})
	}
	members := make([]interface{}, 0, len(s.Members))
	for i, m := range s.Members {
		members = append(members, goqu.Record{"seq": i + 1, "id": m.ID, "name": m.Name, "email": m.Email})
	}
	loans := make([]interface{}, 0, len(s.Loans))
	for i, l := range s.Loans {
		var returned interface{}
		if l.ReturnDate != nil {
			returned = FormatDate(*l.ReturnDate)
		}
		loans = append(loans, goqu.Record{
			"seq": i + 1, "loan_id": l.ID, "book_id": l.BookID, "member_id": l.MemberID,
			"borrow_date": FormatDate(l.BorrowDate), "due_date": FormatDate(l.DueDate),
			"return_date": returned,
		})
	}

	for _, batch := range []struct {
		table string
		rows  []interface{}
	}{{"books", books}, {"members", members}, {"loans", loans}} {
		if err := insertRows(tx, batch.table, batch.rows); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: commit: %w", ErrStorage, err)
	}
	d.log.Info("saved records", "books", len(books), "members", len(members), "loans", len(loans))
	return nil
}

// insertBatchSize keeps a single INSERT well below SQLite's bound parameter limit.
const insertBatchSize = 100

// insertRows binds every value as a parameter so text is stored byte for byte.
func insertRows(tx *sqlx.Tx, table string, rows []interface{}) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		query, args, err := goqu.Dialect(dialectSQLite).Insert(table).Prepared(true).Rows(rows[start:end]...).ToSQL()
		if err != nil {
			return errors.Join(ErrStorage, fmt.Errorf("build insert into %s: %w", table, err))
		}
		if _, err := tx.Exec(query, args...); err != nil {
			return fmt.Errorf("%w: insert into %s: %w", ErrStorage, table, err)
		}
	}
	return nil
}
