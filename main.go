package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"library-console/library"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

// rootOptions holds the persistent flags shared by every command.
type rootOptions struct {
	configPath string
	dataDir    string
	backend    string
	logLevel   string
	autosave   bool
}

func newRootCmd(in io.Reader, out io.Writer) *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "library",
		Short:         "Track a library's books, members and loans",
		Long:          "Interactive console for the book inventory, member roster and lending records kept in the data directory.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error: %v\n", err)
				return err
			}
			mgr, cleanup, err := openManager(cfg, out)
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error opening library: %v\n", err)
				return err
			}
			defer cleanup()

			c := newConsole(in, out, mgr)
			c.prompts = isTerminal(in)
			c.width = terminalWidth(out)
			c.autosave = cfg.Autosave
			return c.run()
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", library.ConfigPath, "path to the YAML config file")
	pf.StringVar(&opts.dataDir, "data-dir", "", "directory holding the record files")
	pf.StringVar(&opts.backend, "backend", "", "record store: csv or sqlite")
	pf.StringVar(&opts.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.Flags().BoolVar(&opts.autosave, "autosave", false, "save after every change")

	root.AddCommand(newReportCmd(opts, out), newMigrateCmd(opts, out))
	return root
}

// load reads the config file and environment, then applies any flags the
// user set explicitly.
func (o *rootOptions) load(cmd *cobra.Command) (library.Config, error) {
	cfg, err := library.LoadConfig(o.configPath)
	if err != nil {
		return cfg, err
	}
	flags := cmd.Flags()
	if flags.Changed("data-dir") {
		cfg.DataDir = o.dataDir
	}
	if flags.Changed("backend") {
		cfg.Backend = o.backend
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = o.logLevel
	}
	if flags.Changed("autosave") {
		cfg.Autosave = o.autosave
	}
	return cfg, cfg.Validate()
}

// openManager sets up logging and loads the library. A load failure is
// reported on out and the manager is kept, so work can continue in memory.
func openManager(cfg library.Config, out io.Writer) (*library.LibraryManager, func(), error) {
	logger, closeLog, err := openLogger(cfg)
	if err != nil {
		return nil, nil, err
	}

	mgr, err := library.OpenLibrary(cfg, logger)
	if mgr == nil {
		closeLog()
		return nil, nil, err
	}
	if err != nil {
		fmt.Fprintf(out, "Warning: %v\nContinuing with the records that could be read.\n", err)
	}
	printLoadReport(out, mgr.LoadReport())

	cleanup := func() {
		if err := mgr.Close(); err != nil {
			logger.Error("close failed", "error", err)
		}
		closeLog()
	}
	return mgr, cleanup, nil
}

func openLogger(cfg library.Config) (*slog.Logger, func(), error) {
	path := cfg.LogPath()
	if path == "-" {
		return library.InitLogger(cfg.LogLevel, cfg.LogFormat, os.Stderr), func() {}, nil
	}
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("open log file: %w", err)
	}
	return library.InitLogger(cfg.LogLevel, cfg.LogFormat, f), func() { f.Close() }, nil
}

func printLoadReport(out io.Writer, r library.LoadReport) {
	fmt.Fprintf(out, "Loaded %d books, %d members, %d loans.\n", r.Books, r.Members, r.Loans)
	for _, s := range r.Skipped {
		fmt.Fprintf(out, "Skipped malformed record %s\n", s)
	}
}

func isTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

const defaultWidth = 100

func terminalWidth(w io.Writer) int {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return defaultWidth
	}
	width, _, err := term.GetSize(int(f.Fd()))
	if err != nil || width <= 0 {
		return defaultWidth
	}
	return width
}
