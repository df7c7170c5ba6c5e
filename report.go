package main

import (
	"fmt"
	"io"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"library-console/library"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// loanView is the JSON shape of a loan: civil dates as strings, an empty
// returned date while the loan is outstanding.
type loanView struct {
	ID         string `json:"loan_id"`
	BookID     string `json:"book_id"`
	MemberID   string `json:"member_id"`
	BorrowDate string `json:"borrow_date"`
	DueDate    string `json:"due_date"`
	ReturnDate string `json:"return_date,omitempty"`
	DaysLate   int    `json:"days_late,omitempty"`
}

func loanViews(loans []library.Loan, today time.Time) []loanView {
	views := make([]loanView, 0, len(loans))
	for _, l := range loans {
		v := loanView{
			ID:         l.ID,
			BookID:     l.BookID,
			MemberID:   l.MemberID,
			BorrowDate: library.FormatDate(l.BorrowDate),
			DueDate:    library.FormatDate(l.DueDate),
		}
		if l.ReturnDate != nil {
			v.ReturnDate = library.FormatDate(*l.ReturnDate)
		}
		v.DaysLate = l.DaysOverdue(today)
		views = append(views, v)
	}
	return views
}

func writeJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// newReportCmd prints a single report without entering the console.
func newReportCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print a report and exit",
	}
	cmd.PersistentFlags().BoolVar(&asJSON, "json", false, "emit JSON instead of a table")

	var threshold int
	low := &cobra.Command{
		Use:   "low-availability",
		Short: "Books with at most --threshold copies available",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if threshold < 0 {
				return report(cmd, fmt.Errorf("threshold must be >= 0: %w", library.ErrInvalidInput))
			}
			return withLibrary(cmd, opts, func(mgr *library.LibraryManager) error {
				books := mgr.LowAvailability(threshold)
				if asJSON {
					return writeJSON(out, books)
				}
				if len(books) == 0 {
					fmt.Fprintln(out, "No books at or below the threshold.")
					return nil
				}
				printBooks(out, books, defaultWidth)
				return nil
			})
		},
	}
	low.Flags().IntVar(&threshold, "threshold", 1, "highest available count to report")

	var date string
	overdue := &cobra.Command{
		Use:   "overdue",
		Short: "Outstanding loans past their due date",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLibrary(cmd, opts, func(mgr *library.LibraryManager) error {
				today := mgr.Today()
				if date != "" {
					d, err := library.ParseDate(date)
					if err != nil {
						return fmt.Errorf("--date: %w", err)
					}
					today = d
				}
				loans := mgr.Overdue(today)
				if asJSON {
					return writeJSON(out, loanViews(loans, today))
				}
				if len(loans) == 0 {
					fmt.Fprintln(out, "No overdue loans.")
					return nil
				}
				printLoans(out, loans)
				return nil
			})
		},
	}
	overdue.Flags().StringVar(&date, "date", "", "report as of this date (YYYY-MM-DD), default today")

	history := &cobra.Command{
		Use:   "history MEMBER",
		Short: "Every loan of one member, oldest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, opts, func(mgr *library.LibraryManager) error {
				loans, err := mgr.History(args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(out, loanViews(loans, mgr.Today()))
				}
				if len(loans) == 0 {
					fmt.Fprintln(out, "No loan history for this member.")
					return nil
				}
				printLoans(out, loans)
				return nil
			})
		},
	}

	cmd.AddCommand(low, overdue, history)
	return cmd
}

// newMigrateCmd copies every record from the configured backend into another.
func newMigrateCmd(opts *rootOptions, out io.Writer) *cobra.Command {
	var to string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy all records into another backend",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return report(cmd, err)
			}
			if to == cfg.Backend {
				return report(cmd, fmt.Errorf("source and destination are both %q: %w", to, library.ErrInvalidInput))
			}
			exists, err := cfg.StoreExists(cfg.Backend)
			if err != nil {
				return report(cmd, err)
			}
			if !exists {
				return report(cmd, fmt.Errorf("no %s records in %s to migrate: %w", cfg.Backend, cfg.DataDir, library.ErrNotFound))
			}
			logger, closeLog, err := openLogger(cfg)
			if err != nil {
				return report(cmd, err)
			}
			defer closeLog()

			src, err := cfg.OpenBackend(cfg.Backend, logger)
			if err != nil {
				return report(cmd, err)
			}
			defer src.Close()
			dst, err := cfg.OpenBackend(to, logger)
			if err != nil {
				return report(cmd, err)
			}
			defer dst.Close()

			r, err := library.Migrate(src, dst)
			if r != nil {
				printLoadReport(out, *r)
			}
			if err != nil {
				return report(cmd, err)
			}
			fmt.Fprintf(out, "Migrated %s -> %s.\n", cfg.Backend, to)
			return nil
		},
	}
	cmd.Flags().StringVar(&to, "to", library.BackendSQLite, "destination backend: csv or sqlite")
	return cmd
}

// withLibrary opens the configured library quietly, runs fn and closes it
// without saving.
func withLibrary(cmd *cobra.Command, opts *rootOptions, fn func(*library.LibraryManager) error) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return report(cmd, err)
	}
	mgr, cleanup, err := openManager(cfg, cmd.ErrOrStderr())
	if err != nil {
		return report(cmd, err)
	}
	defer cleanup()
	return report(cmd, fn(mgr))
}

func report(cmd *cobra.Command, err error) error {
	if err != nil {
		fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
	}
	return err
}
