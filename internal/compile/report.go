package compile

import (
	"time"

	"git.home.luguber.info/inful/pagebuilder/internal/metrics"
	"git.home.luguber.info/inful/pagebuilder/internal/version"
)

// JobKind distinguishes collection page jobs from plain file jobs.
type JobKind string

const (
	JobPage JobKind = "page"
	JobFile JobKind = "file"
)

// JobIssue records one job that did not complete cleanly.
type JobIssue struct {
	Kind   JobKind
	Source string
	Output string
	Err    error
}

// Report summarizes one compile pass.
type Report struct {
	PassID  string
	Version string
	Start   time.Time
	End     time.Time

	Collections int
	Jobs        int
	Written     []string

	// Warnings are recovered issues that still produced output, such as
	// malformed front matter replaced by an empty mapping.
	Warnings []JobIssue
	// Dropped jobs failed to resolve or render; nothing was written.
	Dropped []JobIssue
	// WriteFailures rendered but could not be written.
	WriteFailures []JobIssue
	// Fatal is set when the pass aborted before scheduling any job.
	Fatal error
}

func newReport(passID string) *Report {
	return &Report{
		PassID:  passID,
		Version: version.Version,
		Start:   time.Now(),
	}
}

// Duration is the wall time of the pass.
func (r *Report) Duration() time.Duration {
	if r.End.IsZero() {
		return time.Since(r.Start)
	}
	return r.End.Sub(r.Start)
}

// Outcome classifies the pass.
func (r *Report) Outcome() metrics.PassOutcome {
	switch {
	case r.Fatal != nil:
		return metrics.PassAborted
	case len(r.WriteFailures) > 0:
		return metrics.PassFailed
	case len(r.Dropped) > 0:
		return metrics.PassPartial
	default:
		return metrics.PassSuccess
	}
}

// Failed reports whether any job failed to produce its output.
func (r *Report) Failed() bool {
	return r.Fatal != nil || len(r.WriteFailures) > 0 || len(r.Dropped) > 0
}
