package metrics

import "time"

// ResultLabel enumerates isolated build outcomes for counters.
type ResultLabel string

const (
	ResultSuccess  ResultLabel = "success"
	ResultFailed   ResultLabel = "failed"
	ResultCanceled ResultLabel = "canceled"
)

// DispatchLabel enumerates what the watch loop did with a filesystem event.
type DispatchLabel string

const (
	DispatchSpawned DispatchLabel = "spawned"
	DispatchDropped DispatchLabel = "dropped"
	DispatchIgnored DispatchLabel = "ignored"
)

// Recorder defines observability hooks for isolated builds and the watch
// loop. NoopRecorder is the default when metrics are not configured.
type Recorder interface {
	ObserveBuildDuration(d time.Duration, result ResultLabel)
	IncBuildResult(result ResultLabel)
	IncCoalesced()
	SetBuildsInFlight(n int)
	IncWatchEvent(result DispatchLabel)
	IncFullBuild()
}

// NoopRecorder is a Recorder that does nothing.
type NoopRecorder struct{}

func (NoopRecorder) ObserveBuildDuration(time.Duration, ResultLabel) {}
func (NoopRecorder) IncBuildResult(ResultLabel)                      {}
func (NoopRecorder) IncCoalesced()                                   {}
func (NoopRecorder) SetBuildsInFlight(int)                           {}
func (NoopRecorder) IncWatchEvent(DispatchLabel)                     {}
func (NoopRecorder) IncFullBuild()                                   {}
