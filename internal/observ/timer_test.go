package observ_test

import (
	"strings"
	"testing"
	"time"

	"github.com/Zenthial/ctrl/internal/observ"
)

func TestTimerRecordsPhases(t *testing.T) {
	timer := observ.NewTimer()
	idx := timer.Begin("decode")
	time.Sleep(time.Millisecond)
	timer.End(idx, "1 input")

	report := timer.Report()
	if len(report.Phases) != 1 {
		t.Fatalf("expected 1 phase, got %d", len(report.Phases))
	}
	p := report.Phases[0]
	if p.Name != "decode" {
		t.Errorf("expected phase name decode, got %q", p.Name)
	}
	if p.Note != "1 input" {
		t.Errorf("expected note to survive, got %q", p.Note)
	}
	if p.DurationMS <= 0 {
		t.Errorf("expected a positive duration, got %v", p.DurationMS)
	}
	if report.TotalMS < p.DurationMS {
		t.Errorf("expected total %v to cover the phase %v", report.TotalMS, p.DurationMS)
	}
}

func TestTimerEndIgnoresBadIndex(t *testing.T) {
	timer := observ.NewTimer()
	timer.End(-1, "")
	timer.End(3, "")
	if got := timer.Report(); len(got.Phases) != 0 {
		t.Fatalf("expected no phases, got %d", len(got.Phases))
	}
}

func TestSummaryListsEveryPhase(t *testing.T) {
	timer := observ.NewTimer()
	for _, name := range []string{"decode", "lower", "emit"} {
		timer.End(timer.Begin(name), "")
	}
	summary := timer.Summary()
	for _, want := range []string{"decode", "lower", "emit", "total"} {
		if !strings.Contains(summary, want) {
			t.Errorf("expected summary to mention %q, got:\n%s", want, summary)
		}
	}
}
