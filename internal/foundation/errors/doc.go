// Package errors provides the classified error primitives used across pagebuilder.
//
// Every failure that crosses a package boundary is a ClassifiedError carrying a
// category (config, metadata, template, render, filesystem, ...), a severity and
// a small context map. The compile orchestrator uses the category to decide
// whether a failure aborts the pass or only drops a single render job, and the
// CLI adapter maps categories to process exit codes.
//
// Example usage:
//
//	err := errors.WrapError(cause, errors.CategoryRender, "render failed").
//		WithContext("path", src).
//		Build()
package errors
