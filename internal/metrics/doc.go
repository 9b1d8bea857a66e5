// Package metrics records compile pass and render job metrics.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics never need nil checks at call sites:
//
//	compiler := compile.New(cfg, compile.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// The watch command serves the registry through HTTPHandler when
// metrics.enabled is set in the configuration.
package metrics
