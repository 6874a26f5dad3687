// Package metrics records what a scrape run did.
//
// Components receive a Recorder and default to NoopRecorder, so metrics stay
// optional. When a textfile path is configured the CLI installs a
// PrometheusRecorder and writes the registry with WriteTextfile at the end of
// the run, for pickup by the node-exporter textfile collector.
package metrics
