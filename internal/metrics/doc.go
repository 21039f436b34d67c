// Package metrics records publish and generation metrics.
//
// Components receive a Recorder and default to NoopRecorder, so metrics never need
// nil checks at call sites. PrometheusRecorder backs the recorder with a registry
// that can be written to a node_exporter textfile after a run or served over HTTP
// while watching.
package metrics
