// Package errors holds the classified error type returned across akini.
//
// Every error carries a category naming the failing concern and a severity
// deciding how loudly it is logged. Context attached with WithContext becomes
// log attributes when the CLI reports the error, and the category selects the
// process exit code:
//
//	err := errors.MinifyError("minify script bundle").
//		WithContext("page", "/blog/").
//		WithCause(cause).
//		Build()
package errors
