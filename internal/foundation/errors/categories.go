package errors

// ErrorCategory says which part of akini failed. The CLI maps it to an exit code.
type ErrorCategory string

const (
	// Manifest, page definitions and flags.
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"

	// Compiling one page.
	CategoryBuild      ErrorCategory = "build"
	CategoryMinify     ErrorCategory = "minify"
	CategoryFileSystem ErrorCategory = "filesystem"

	// Orchestration around compiles.
	CategoryIsolation ErrorCategory = "isolation"
	CategoryWatch     ErrorCategory = "watch"
	CategoryJournal   ErrorCategory = "journal"
	CategoryNotify    ErrorCategory = "notify"
	CategoryInternal  ErrorCategory = "internal"
)

// ErrorSeverity decides the log level an error is reported at.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
)

// ErrorContext holds key/value details emitted as log attributes.
type ErrorContext map[string]any
