// Package dataset decodes curriculum and lecturer YAML files into the raw, ordered
// shapes consumed by the catalog package.
package dataset
