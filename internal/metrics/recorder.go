package metrics

import "time"

// JobResult enumerates render job result categories for counters.
type JobResult string

const (
	JobWritten JobResult = "written" // rendered and written
	JobDropped JobResult = "dropped" // recovered render/template failure, nothing written
	JobFailed  JobResult = "failed"  // write failure, surfaced in the pass outcome
)

// PassOutcome enumerates final pass states.
type PassOutcome string

const (
	PassSuccess PassOutcome = "success"
	PassPartial PassOutcome = "partial" // some jobs dropped, none failed
	PassFailed  PassOutcome = "failed"
	PassAborted PassOutcome = "aborted" // fatal before scheduling any job
)

// Recorder defines observability hooks for compile passes.
type Recorder interface {
	ObservePassDuration(d time.Duration)
	IncPassOutcome(outcome PassOutcome)
	ObserveJobDuration(kind string, d time.Duration)
	IncJobResult(kind string, result JobResult)
	SetCollectionItems(collection string, n int)
	IncCacheLookup(hit bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObservePassDuration(time.Duration)        {}
func (NoopRecorder) IncPassOutcome(PassOutcome)               {}
func (NoopRecorder) ObserveJobDuration(string, time.Duration) {}
func (NoopRecorder) IncJobResult(string, JobResult)           {}
func (NoopRecorder) SetCollectionItems(string, int)           {}
func (NoopRecorder) IncCacheLookup(bool)                      {}
