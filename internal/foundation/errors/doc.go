// Package errors provides the classified error primitives used across syllabi.
//
// Every failure raised by the catalog, renderer and reconciler is a *ClassifiedError
// carrying one of the core categories:
//   - CategorySchema: malformed or missing required field in raw input
//   - CategoryReference: dangling lecturer, discipline or competency reference
//   - CategoryNotFound: lookup miss
//   - CategoryTemplate: template that cannot be read as text
//   - CategoryParse: index document that cannot be scanned as HTML
//
// Collaborators (config, publishing, storage) use the remaining categories.
//
// Example usage:
//
//	err := errors.ReferenceError("unknown lecturer").
//		WithContext("code", "ПО 01").
//		WithContext("lecturer_id", "L99").
//		Build()
package errors
