// Package metrics records startup check outcomes.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so no nil checks are needed at call sites:
//
//	gate := versiongate.New(source, versiongate.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The daemon command exposes the Prometheus registry through HTTPHandler.
package metrics
