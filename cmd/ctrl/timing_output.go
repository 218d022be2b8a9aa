package main

import (
	"fmt"
	"io"
	"time"

	"github.com/Zenthial/ctrl/internal/pipeline"
)

func printStageTimings(out io.Writer, timings pipeline.Timings, includeRun bool) {
	if out == nil {
		return
	}
	if timings.Has(pipeline.StageDecode) {
		_, _ = fmt.Fprintf(out, "decoded %.1f ms\n", toMillis(timings.Duration(pipeline.StageDecode)))
	}
	if timings.Has(pipeline.StageLower) || timings.Has(pipeline.StageEmit) {
		built := timings.Sum(pipeline.StageLower, pipeline.StageEmit)
		_, _ = fmt.Fprintf(out, "built %.1f ms\n", toMillis(built))
	}
	if timings.Has(pipeline.StageWrite) {
		_, _ = fmt.Fprintf(out, "wrote %.1f ms\n", toMillis(timings.Duration(pipeline.StageWrite)))
	}
	if includeRun && timings.Has(pipeline.StageRun) {
		_, _ = fmt.Fprintf(out, "ran %.1f ms\n", toMillis(timings.Duration(pipeline.StageRun)))
	}
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
