package library

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
)

// File names inside the data directory.
const (
	BooksFile   = "books.csv"
	MembersFile = "members.csv"
	LoansFile   = "loans.csv"
)

// CSVBackend keeps one comma-separated file per record type. Fields are
// quoted when they contain a comma, a quote or a line break, so any text
// round-trips.
type CSVBackend struct {
	dir string
	log *slog.Logger
}

// NewCSVBackend stores files under dir. The directory is created on first save.
func NewCSVBackend(dir string, logger *slog.Logger) *CSVBackend {
	return &CSVBackend{dir: dir, log: orDiscard(logger)}
}

// Load reads the three files. A missing file is an empty collection. A file
// that cannot be read leaves its collection empty and is reported in the
// returned error; the other files are still loaded.
func (c *CSVBackend) Load() (*Snapshot, *LoadReport, error) {
	p := newRecordParser()
	report := &LoadReport{}

	var errs []error
	for _, src := range []struct {
		name  string
		parse func([]string) error
		count *int
	}{
		{BooksFile, p.book, &report.Books},
		{MembersFile, p.member, &report.Members},
		{LoansFile, p.loan, &report.Loans},
	} {
		n, skipped, err := c.readFile(src.name, src.parse)
		*src.count = n
		report.Skipped = append(report.Skipped, skipped...)
		if err != nil {
			c.log.Error("load failed", "file", src.name, "error", err)
			errs = append(errs, err)
			continue
		}
		c.log.Info("loaded records", "file", src.name, "count", n, "skipped", len(skipped))
	}
	return &p.snap, report, errors.Join(errs...)
}

func (c *CSVBackend) readFile(name string, parse func([]string) error) (int, []SkippedRecord, error) {
	path := filepath.Join(c.dir, name)
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return 0, nil, nil
	}
	if err != nil {
		return 0, nil, fmt.Errorf("%w: open %s: %w", ErrStorage, path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	var (
		loaded  int
		skipped []SkippedRecord
	)
	for {
		fields, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return loaded, skipped, fmt.Errorf("%w: read %s: %w", ErrStorage, path, err)
			}
			skipped = append(skipped, c.skip(name, perr.StartLine, fmt.Errorf("%w: %w", ErrMalformedRecord, perr.Err)))
			continue
		}
		line, _ := r.FieldPos(0)
		if err := parse(fields); err != nil {
			skipped = append(skipped, c.skip(name, line, err))
			continue
		}
		loaded++
	}
	return loaded, skipped, nil
}

func (c *CSVBackend) skip(name string, line int, err error) SkippedRecord {
	c.log.Warn("skipping malformed record", "file", name, "line", line, "error", err)
	return SkippedRecord{Source: name, Line: line, Err: err}
}

// Save rewrites all three files from s. Each file is attempted even if an
// earlier one failed.
func (c *CSVBackend) Save(s *Snapshot) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("%w: create data dir: %w", ErrStorage, err)
	}

	books := make([][]string, 0, len(s.Books))
	for _, b := range s.Books {
		books = append(books, bookFields(b))
	}
	members := make([][]string, 0, len(s.Members))
	for _, m := range s.Members {
		members = append(members, memberFields(m))
	}
	loans := make([][]string, 0, len(s.Loans))
	for _, l := range s.Loans {
		loans = append(loans, loanFields(l))
	}

	err := errors.Join(
		c.writeFile(BooksFile, books),
		c.writeFile(MembersFile, members),
		c.writeFile(LoansFile, loans),
	)
	if err != nil {
		c.log.Error("save failed", "dir", c.dir, "error", err)
		return err
	}
	c.log.Info("saved records", "dir", c.dir, "books", len(books), "members", len(members), "loans", len(loans))
	return nil
}

func (c *CSVBackend) writeFile(name string, rows [][]string) error {
	path := filepath.Join(c.dir, name)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrStorage, path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("%w: write %s: %w", ErrStorage, path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("%w: close %s: %w", ErrStorage, path, err)
	}
	return nil
}

// Close is a no-op; files are opened per call.
func (c *CSVBackend) Close() error { return nil }
