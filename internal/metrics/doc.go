// Package metrics records isolated build and watch loop metrics.
//
// Components take a Recorder and default to NoopRecorder, so metrics stay
// optional:
//
//	spawner := isolate.NewSpawner(h.Pages(), launcher, isolate.WithRecorder(metrics.NewPrometheusRecorder(reg)))
//
// PrometheusRecorder registers its collectors on the given registry, which
// Serve then exposes over HTTP in watch mode.
package metrics
