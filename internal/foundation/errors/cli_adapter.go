package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// exitCodes maps categories onto process exit codes. Unclassified errors and
// unknown categories exit with 1.
var exitCodes = map[ErrorCategory]int{
	CategoryValidation: 2,
	CategoryNotFound:   3,
	CategoryConfig:     7,
	CategoryInternal:   10,
	CategoryBuild:      11,
	CategoryMinify:     11,
	CategoryFileSystem: 11,
	CategoryIsolation:  12,
	CategoryWatch:      12,
	CategoryJournal:    13,
	CategoryNotify:     13,
}

// CLIErrorAdapter reports the error a command returned and picks the exit code.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	out     io.Writer
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, out: os.Stderr}
}

// ExitCodeFor returns 0 for nil and the category's exit code otherwise.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if classified, ok := AsClassified(err); ok {
		if code, known := exitCodes[classified.Category()]; known {
			return code
		}
	}
	return 1
}

// FormatError renders the one-line message printed on stderr. Without -v only
// the message of a classified error is shown.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	classified, ok := AsClassified(err)
	if !ok || a.verbose {
		return fmt.Sprintf("Error: %v", err)
	}
	return fmt.Sprintf("Error: %s (use -v for details)", classified.Message())
}

// HandleError logs err, prints it and returns the exit code.
func (a *CLIErrorAdapter) HandleError(err error) int {
	if err == nil {
		return 0
	}
	a.log(err)
	_, _ = fmt.Fprintln(a.out, a.FormatError(err))
	return a.ExitCodeFor(err)
}

func (a *CLIErrorAdapter) log(err error) {
	classified, ok := AsClassified(err)
	if !ok {
		a.logger.Error("Command failed", "error", err)
		return
	}
	level := slog.LevelError
	if classified.Severity() == SeverityWarning {
		level = slog.LevelWarn
	}
	attrs := classified.LogAttrs()
	if cause := classified.Cause(); cause != nil {
		attrs = append(attrs, slog.String("cause", cause.Error()))
	}
	a.logger.LogAttrs(context.Background(), level, classified.Message(), attrs...)
}
