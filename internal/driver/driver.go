// Package driver runs the compile pipeline end to end: decode the input
// program, lower it, emit code for the selected backend, write the artifact.
package driver

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/backend/llvm"
	"github.com/Zenthial/ctrl/internal/backend/native"
	"github.com/Zenthial/ctrl/internal/backend/qbe"
	"github.com/Zenthial/ctrl/internal/lower"
	"github.com/Zenthial/ctrl/internal/observ"
	"github.com/Zenthial/ctrl/internal/pipeline"
)

// CompileRequest configures one compilation.
type CompileRequest struct {
	InputPath string
	OutputDir string
	Backend   pipeline.Backend
	Target    backend.Target
	NoCache   bool
	Cache     *ObjectCache
	Progress  pipeline.ProgressSink
}

// CompileResult captures the artifacts and timings of one compilation.
type CompileResult struct {
	Program    string
	OutputPath string
	CacheHit   bool
	Timings    pipeline.Timings
	Report     observ.Report
}

// NewModule returns a fresh backend module of the requested kind.
func NewModule(kind pipeline.Backend, target backend.Target) (backend.Module, error) {
	switch kind {
	case pipeline.BackendNative:
		m, err := native.New(target)
		if err != nil {
			return nil, err
		}
		return m, nil
	case pipeline.BackendQBE:
		m, err := qbe.New(target)
		if err != nil {
			return nil, err
		}
		return m, nil
	case pipeline.BackendLLVM:
		m, err := llvm.New(target)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported backend: %s (supported: native, qbe, llvm)", kind)
	}
}

// Compile decodes the input, lowers it, emits code and writes the artifact.
// A failed compile writes nothing.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if req.InputPath == "" {
		return result, fmt.Errorf("missing input path")
	}
	reqCopy := *req
	req = &reqCopy
	if req.Backend == "" {
		req.Backend = pipeline.BackendNative
	}
	if req.Target == (backend.Target{}) {
		req.Target = backend.NativeTarget()
	}
	if req.OutputDir == "" {
		req.OutputDir = "."
	}

	timer := observ.NewTimer()
	defer func() { result.Report = timer.Report() }()

	emitStage(req.Progress, req.InputPath, pipeline.StageDecode, pipeline.StatusQueued, nil, 0)
	if err := ctx.Err(); err != nil {
		return result, err
	}

	decodeStart := time.Now()
	emitStage(req.Progress, req.InputPath, pipeline.StageDecode, pipeline.StatusWorking, nil, 0)
	phase := timer.Begin("decode")
	raw, err := os.ReadFile(req.InputPath)
	if err != nil {
		err = fmt.Errorf("failed to read %q: %w", req.InputPath, err)
		emitStage(req.Progress, req.InputPath, pipeline.StageDecode, pipeline.StatusError, err, 0)
		return result, err
	}
	prog, err := ast.DecodeProgram(bytes.NewReader(raw))
	if err != nil {
		err = fmt.Errorf("failed to decode %q: %w", req.InputPath, err)
		emitStage(req.Progress, req.InputPath, pipeline.StageDecode, pipeline.StatusError, err, 0)
		return result, err
	}
	timer.End(phase, fmt.Sprintf("%d items", len(prog.Items)))
	result.Program = prog.Name
	result.Timings.Set(pipeline.StageDecode, time.Since(decodeStart))
	emitStage(req.Progress, req.InputPath, pipeline.StageDecode, pipeline.StatusDone, nil, time.Since(decodeStart))

	key := Key(raw, req.Target, req.Backend)
	if req.Cache != nil && !req.NoCache {
		var entry CachedObject
		if ok, getErr := req.Cache.Get(key, &entry); getErr == nil && ok {
			writeStart := time.Now()
			emitStage(req.Progress, req.InputPath, pipeline.StageWrite, pipeline.StatusWorking, nil, 0)
			path, werr := writeArtifact(req.OutputDir, entry.Name, entry.Ext, entry.Object)
			if werr != nil {
				emitStage(req.Progress, req.InputPath, pipeline.StageWrite, pipeline.StatusError, werr, 0)
				return result, werr
			}
			result.OutputPath = path
			result.CacheHit = true
			result.Timings.Set(pipeline.StageWrite, time.Since(writeStart))
			emitStage(req.Progress, req.InputPath, pipeline.StageWrite, pipeline.StatusDone, nil, time.Since(writeStart))
			return result, nil
		}
	}

	if err := ctx.Err(); err != nil {
		return result, err
	}

	lowerStart := time.Now()
	emitStage(req.Progress, req.InputPath, pipeline.StageLower, pipeline.StatusWorking, nil, 0)
	phase = timer.Begin("lower")
	mod, err := NewModule(req.Backend, req.Target)
	if err != nil {
		emitStage(req.Progress, req.InputPath, pipeline.StageLower, pipeline.StatusError, err, 0)
		return result, err
	}
	if err := lower.Compile(prog, mod); err != nil {
		emitStage(req.Progress, req.InputPath, pipeline.StageLower, pipeline.StatusError, err, 0)
		return result, err
	}
	timer.End(phase, fmt.Sprintf("%d functions", len(prog.Items)))
	result.Timings.Set(pipeline.StageLower, time.Since(lowerStart))
	emitStage(req.Progress, req.InputPath, pipeline.StageLower, pipeline.StatusDone, nil, time.Since(lowerStart))

	if err := ctx.Err(); err != nil {
		return result, err
	}

	emitStart := time.Now()
	emitStage(req.Progress, req.InputPath, pipeline.StageEmit, pipeline.StatusWorking, nil, 0)
	phase = timer.Begin("emit")
	obj, err := mod.Emit()
	if err != nil {
		err = fmt.Errorf("emit failed: %w", err)
		emitStage(req.Progress, req.InputPath, pipeline.StageEmit, pipeline.StatusError, err, 0)
		return result, err
	}
	timer.End(phase, fmt.Sprintf("%d bytes", len(obj)))
	result.Timings.Set(pipeline.StageEmit, time.Since(emitStart))
	emitStage(req.Progress, req.InputPath, pipeline.StageEmit, pipeline.StatusDone, nil, time.Since(emitStart))

	writeStart := time.Now()
	emitStage(req.Progress, req.InputPath, pipeline.StageWrite, pipeline.StatusWorking, nil, 0)
	phase = timer.Begin("write")
	path, err := writeArtifact(req.OutputDir, prog.Name, mod.FileExt(), obj)
	if err != nil {
		emitStage(req.Progress, req.InputPath, pipeline.StageWrite, pipeline.StatusError, err, 0)
		return result, err
	}
	timer.End(phase, path)
	result.OutputPath = path
	result.Timings.Set(pipeline.StageWrite, time.Since(writeStart))
	emitStage(req.Progress, req.InputPath, pipeline.StageWrite, pipeline.StatusDone, nil, time.Since(writeStart))

	if req.Cache != nil && !req.NoCache {
		// A failed cache write never fails the build.
		_ = req.Cache.Put(key, &CachedObject{
			Name:   prog.Name,
			Ext:    mod.FileExt(),
			Object: obj,
		})
	}
	return result, nil
}

func writeArtifact(dir, name, ext string, data []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("failed to create output dir: %w", err)
	}
	path := filepath.Join(dir, name+ext)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write %q: %w", path, err)
	}
	return path, nil
}

func emitStage(sink pipeline.ProgressSink, file string, stage pipeline.Stage, status pipeline.Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(pipeline.Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	if file != "" {
		sink.OnEvent(pipeline.Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}
