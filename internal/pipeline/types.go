// Package pipeline defines the progress events and stage timings shared by
// the compile driver and the CLI.
package pipeline

import "time"

// Stage describes a high-level pipeline phase.
type Stage string

const (
	// StageDecode is the input decoding stage.
	StageDecode Stage = "decode"
	// StageLower is the lowering stage.
	StageLower Stage = "lower"
	// StageEmit is the code emission stage.
	StageEmit Stage = "emit"
	// StageWrite is the artifact write stage.
	StageWrite Stage = "write"
	// StageRun is the run stage.
	StageRun Stage = "run"
)

// Status captures progress state within a stage.
type Status string

const (
	// StatusQueued indicates the task is waiting to start.
	StatusQueued Status = "queued"
	// StatusWorking indicates the task is currently working.
	StatusWorking Status = "working"
	// StatusDone indicates the task is done.
	StatusDone Status = "done"
	// StatusError indicates the task encountered an error.
	StatusError Status = "error"
)

// Event reports progress for an input (or for the overall pipeline when File
// is empty).
type Event struct {
	File    string
	Stage   Stage
	Status  Status
	Err     error
	Elapsed time.Duration
}

// ProgressSink consumes progress events.
type ProgressSink interface {
	OnEvent(Event)
}

// Backend selects the code generation backend.
type Backend string

const (
	// BackendNative selects the built-in machine code backend.
	BackendNative Backend = "native"
	// BackendQBE selects the QBE backend.
	BackendQBE Backend = "qbe"
	// BackendLLVM selects the LLVM backend.
	BackendLLVM Backend = "llvm"
)

// Timings holds stage durations.
type Timings struct {
	stages map[Stage]time.Duration
}

func (t *Timings) ensure() {
	if t.stages == nil {
		t.stages = make(map[Stage]time.Duration)
	}
}

// Set stores a duration for the given stage.
func (t *Timings) Set(stage Stage, dur time.Duration) {
	if t == nil {
		return
	}
	t.ensure()
	t.stages[stage] = dur
}

// Has reports whether a duration for stage is recorded.
func (t Timings) Has(stage Stage) bool {
	if t.stages == nil {
		return false
	}
	_, ok := t.stages[stage]
	return ok
}

// Duration returns the recorded duration for stage.
func (t Timings) Duration(stage Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	return t.stages[stage]
}

// Sum returns the sum of durations across the provided stages.
func (t Timings) Sum(stages ...Stage) time.Duration {
	if t.stages == nil {
		return 0
	}
	var total time.Duration
	for _, stage := range stages {
		total += t.stages[stage]
	}
	return total
}
