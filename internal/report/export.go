package report

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/signalnine/abebench/internal/result"
)

// ExportOptions selects where Export writes. Empty paths are skipped.
type ExportOptions struct {
	Label        string
	Format       string
	CSVPath      string
	HTMLPath     string
	TextfilePath string
	Console      io.Writer
	Logger       *slog.Logger
}

// Export renders the collection to the console and writes the configured
// files. File errors are reported and never stop the console rendering.
// It returns the number of files that failed to write.
func Export(opts ExportOptions, c result.Collection) int {
	console := opts.Console
	if console == nil {
		console = io.Discard
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if len(c) == 0 {
		fmt.Fprintln(console, "No results to export")
		return 0
	}

	failed := 0
	t := Build(opts.Label, c)

	if opts.CSVPath != "" {
		if err := WriteFile(opts.CSVPath, func(w io.Writer) error { return WriteCSV(t, w) }); err != nil {
			fmt.Fprintf(console, "Error writing CSV file: %v\n", err)
			logger.Warn("csv export failed", slog.String("path", opts.CSVPath), slog.String("error", err.Error()))
			failed++
		} else {
			fmt.Fprintf(console, "\nResults exported to: %s\n", opts.CSVPath)
		}
	}
	if opts.HTMLPath != "" {
		if err := WriteFile(opts.HTMLPath, func(w io.Writer) error { return WriteHTML(opts.Label, c, w) }); err != nil {
			fmt.Fprintf(console, "Error writing HTML report: %v\n", err)
			logger.Warn("html export failed", slog.String("path", opts.HTMLPath), slog.String("error", err.Error()))
			failed++
		} else {
			fmt.Fprintf(console, "Charts exported to: %s\n", opts.HTMLPath)
		}
	}
	if opts.TextfilePath != "" {
		err := ensureDir(opts.TextfilePath)
		if err == nil {
			err = WriteTextfile(opts.TextfilePath, c)
		}
		if err != nil {
			fmt.Fprintf(console, "Error writing metrics textfile: %v\n", err)
			logger.Warn("textfile export failed", slog.String("path", opts.TextfilePath), slog.String("error", err.Error()))
			failed++
		} else {
			fmt.Fprintf(console, "Metrics exported to: %s\n", opts.TextfilePath)
		}
	}

	format := opts.Format
	if format == "" || format == "html" {
		format = "table"
	}
	fmt.Fprintln(console, "\n=== Report ===")
	if err := Render(format, opts.Label, c, console); err != nil {
		logger.Warn("console rendering failed", slog.String("format", format), slog.String("error", err.Error()))
	}
	return failed
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	return nil
}

// WriteFile creates path and its parent directories and hands the file to
// write. The file is closed on every path.
func WriteFile(path string, write func(io.Writer) error) error {
	if err := ensureDir(path); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
