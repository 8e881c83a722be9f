package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts an error of the given category at SeverityError.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		message:  message,
	}}
}

// WrapError starts an error of the given category caused by err.
func WrapError(err error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(err)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

// WithContext attaches a detail that is logged alongside the error.
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	if b.err.context == nil {
		b.err.context = make(ErrorContext)
	}
	b.err.context[key] = value
	return b
}

// Build returns the error. The builder may be reused afterwards without
// affecting errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

// ConfigError reports an unusable manifest or page definition.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).WithSeverity(SeverityFatal)
}

func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).WithSeverity(SeverityFatal)
}

func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// BuildError reports a failed page compile.
func BuildError(message string) *ErrorBuilder {
	return NewError(CategoryBuild, message)
}

func MinifyError(message string) *ErrorBuilder {
	return NewError(CategoryMinify, message)
}

// IsolationError reports a child build that could not be run or observed.
func IsolationError(message string) *ErrorBuilder {
	return NewError(CategoryIsolation, message)
}
