// Package catalog builds the validated, cross-referenced discipline catalog.
//
// Raw records arrive as generic keyed-field structures (see Entries) decoded from the
// curriculum and lecturer data files. Load assigns types and meaning to them, resolves
// every lecturer reference and rejects malformed input with a schema or reference error.
// The resulting Catalog is read-only: no method mutates it, so a single instance can be
// shared by concurrent readers.
package catalog
