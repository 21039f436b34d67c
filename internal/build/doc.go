// Package build provides the generation and publishing pipeline behind every command.
//
// All execution paths (CLI, watch mode, tests) route through Service: it syncs the
// data source, loads the catalog and templates, renders pages into the output
// directory, publishes them to the configured target, and reconciles the index page
// with the published URLs.
package build
