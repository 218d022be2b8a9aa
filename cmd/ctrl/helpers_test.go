package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/ir"
	"github.com/Zenthial/ctrl/internal/lower"
	"github.com/Zenthial/ctrl/internal/pipeline"
	"github.com/Zenthial/ctrl/internal/project"
)

func TestReadBackendKind(t *testing.T) {
	cases := []struct {
		input string
		want  pipeline.Backend
	}{
		{"", pipeline.BackendNative},
		{"native", pipeline.BackendNative},
		{"QBE", pipeline.BackendQBE},
		{" llvm ", pipeline.BackendLLVM},
	}
	for _, tc := range cases {
		got, err := readBackendKind(tc.input)
		if err != nil {
			t.Fatalf("readBackendKind(%q) error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("readBackendKind(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	if _, err := readBackendKind("wasm"); err == nil {
		t.Fatalf("expected an error for an unknown backend")
	}
}

func TestReadUIMode(t *testing.T) {
	cases := []struct {
		input string
		want  uiMode
	}{
		{"", uiModeAuto},
		{"auto", uiModeAuto},
		{"ON", uiModeOn},
		{" off ", uiModeOff},
	}
	for _, tc := range cases {
		got, err := readUIMode(tc.input)
		if err != nil {
			t.Fatalf("readUIMode(%q) error: %v", tc.input, err)
		}
		if got != tc.want {
			t.Fatalf("readUIMode(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
	if _, err := readUIMode("fancy"); err == nil {
		t.Fatalf("expected an error for an unknown mode")
	}
}

func TestOutputNameFromPath(t *testing.T) {
	cases := []struct {
		input string
		want  string
	}{
		{"main.ctrlast", "main"},
		{filepath.Join("src", "app.ctrlast"), "app"},
		{"noext", "noext"},
	}
	for _, tc := range cases {
		if got := outputNameFromPath(tc.input); got != tc.want {
			t.Fatalf("outputNameFromPath(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestDemoFuncEvaluates(t *testing.T) {
	fn, err := demoFunc()
	if err != nil {
		t.Fatalf("demoFunc: %v", err)
	}
	if err := ir.Verify(fn); err != nil {
		t.Fatalf("Verify: %v", err)
	}
	got, err := ir.Eval(fn)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 42 {
		t.Fatalf("tester() = %d, want 42", got)
	}
}

func TestStarterProgramRuns(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.ctrlast")
	if err := writeStarterProgram(path, "demo"); err != nil {
		t.Fatalf("writeStarterProgram: %v", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read starter: %v", err)
	}
	prog, err := ast.DecodeProgram(bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("DecodeProgram: %v", err)
	}
	if prog.Name != "demo" {
		t.Fatalf("prog.Name = %q, want demo", prog.Name)
	}
	if len(prog.Items) != 1 {
		t.Fatalf("len(prog.Items) = %d, want 1", len(prog.Items))
	}

	fn, err := lower.LowerFunc(prog.Items[0])
	if err != nil {
		t.Fatalf("LowerFunc: %v", err)
	}
	got, err := ir.Eval(fn)
	if err != nil {
		t.Fatalf("Eval: %v", err)
	}
	if got != 42 {
		t.Fatalf("main() = %d, want 42", got)
	}
}

func TestDefaultManifestLoads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, project.ManifestName)
	if err := os.WriteFile(path, []byte(defaultManifest("demo")), 0o600); err != nil {
		t.Fatalf("write manifest: %v", err)
	}
	m, err := project.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Config.Package.Name != "demo" {
		t.Fatalf("package name = %q, want demo", m.Config.Package.Name)
	}
	if m.Config.Build.Main != "main.ctrlast" {
		t.Fatalf("build main = %q, want main.ctrlast", m.Config.Build.Main)
	}
	if got, want := m.OutDir(), filepath.Join(dir, "build"); got != want {
		t.Fatalf("OutDir() = %q, want %q", got, want)
	}
}

func TestPrintStageTimings(t *testing.T) {
	var timings pipeline.Timings
	timings.Set(pipeline.StageDecode, 2*time.Millisecond)
	timings.Set(pipeline.StageLower, time.Millisecond)
	timings.Set(pipeline.StageRun, time.Millisecond)

	var buf bytes.Buffer
	printStageTimings(&buf, timings, false)
	out := buf.String()
	if !strings.Contains(out, "decoded") || !strings.Contains(out, "built") {
		t.Fatalf("expected decode and build lines, got %q", out)
	}
	if strings.Contains(out, "ran") {
		t.Fatalf("run line printed without includeRun: %q", out)
	}

	buf.Reset()
	printStageTimings(&buf, timings, true)
	if !strings.Contains(buf.String(), "ran") {
		t.Fatalf("expected a run line, got %q", buf.String())
	}
}
