package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"library-console/library"
)

func main() {
	if err := newImportCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newImportCmd(out io.Writer) *cobra.Command {
	var configPath, dataDir string
	cmd := &cobra.Command{
		Use:           "import_books FILE",
		Short:         "Add books in bulk from a CSV file of id,title,author,copies",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := library.LoadConfig(configPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("data-dir") {
				cfg.DataDir = dataDir
			}
			return runImport(cfg, args[0], out)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", library.ConfigPath, "path to the YAML config file")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "directory holding the record files")
	return cmd
}

func runImport(cfg library.Config, path string, out io.Writer) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open import file: %w", err)
	}
	defer f.Close()

	logger := library.InitLogger(cfg.LogLevel, cfg.LogFormat, io.Discard)
	manager, err := library.OpenLibrary(cfg, logger)
	if manager == nil {
		return err
	}
	defer manager.Close()
	if err != nil {
		// Saving now would overwrite the records that could not be read.
		return fmt.Errorf("existing records did not load cleanly, nothing imported: %w", err)
	}

	fmt.Fprintf(out, "Importing books from %s...\n", path)
	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	successCount := 0
	errorCount := 0
	var imported []library.Book
	for first := true; ; first = false {
		fields, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if !errors.As(err, &perr) {
				return fmt.Errorf("read import file: %w", err)
			}
			fmt.Fprintf(out, "Line %d: ERROR - %v\n", perr.StartLine, perr.Err)
			errorCount++
			continue
		}
		line, _ := r.FieldPos(0)
		if first && isHeader(fields) {
			continue
		}
		if len(fields) < 4 {
			fmt.Fprintf(out, "Line %d: ERROR - want id,title,author,copies\n", line)
			errorCount++
			continue
		}

		id, title, author := strings.TrimSpace(fields[0]), strings.TrimSpace(fields[1]), strings.TrimSpace(fields[2])
		fmt.Fprintf(out, "Importing: %s by %s... ", title, author)
		copies, err := strconv.Atoi(strings.TrimSpace(fields[3]))
		if err != nil {
			fmt.Fprintf(out, "ERROR - invalid copy count %q\n", fields[3])
			errorCount++
			continue
		}
		book, err := manager.AddBook(id, title, author, copies)
		if err != nil {
			fmt.Fprintf(out, "ERROR - %v\n", err)
			errorCount++
			continue
		}

		fmt.Fprintf(out, "SUCCESS (ID: %s)\n", book.ID)
		imported = append(imported, book)
		successCount++
	}

	if successCount > 0 {
		if err := manager.Save(); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "\nImport complete!\n")
	fmt.Fprintf(out, "Successfully imported: %d books\n", successCount)
	fmt.Fprintf(out, "Errors: %d\n", errorCount)

	if successCount > 0 {
		fmt.Fprintln(out, "\nImported books:")
		fmt.Fprintf(out, "%-10s %-50s %-30s %6s\n", "ID", "Title", "Author", "Copies")
		fmt.Fprintln(out, strings.Repeat("-", 99))
		for _, book := range imported {
			fmt.Fprintf(out, "%-10s %-50s %-30s %6d\n", truncateString(book.ID, 10),
				truncateString(book.Title, 50), truncateString(book.Author, 30), book.TotalCopies)
		}
	}
	return nil
}

func isHeader(fields []string) bool {
	return len(fields) > 0 && strings.EqualFold(strings.TrimSpace(fields[0]), "id")
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}
