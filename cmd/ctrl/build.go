// Package main implements the ctrl CLI.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/driver"
	"github.com/Zenthial/ctrl/internal/pipeline"
	"github.com/Zenthial/ctrl/internal/project"
)

const noCtrlTomlMessage = "no ctrl.toml found\nplease specify the input explicitly, e.g.:\n  ctrl build path/to/main.ctrlast"

var buildCmd = &cobra.Command{
	Use:   "build [flags] [input.ctrlast...]",
	Short: "Compile ctrl programs into objects",
	Long:  "Compile typed ctrl programs (.ctrlast) into relocatable objects, using ctrl.toml as the input definition when no path is given.",
	Args:  cobra.ArbitraryArgs,
	RunE:  buildExecution,
}

func buildExecution(cmd *cobra.Command, args []string) error {
	emitValue, err := cmd.Flags().GetString("emit")
	if err != nil {
		return err
	}
	targetValue, err := cmd.Flags().GetString("target")
	if err != nil {
		return err
	}
	outValue, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return err
	}
	watch, err := cmd.Flags().GetBool("watch")
	if err != nil {
		return err
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return err
	}
	noCache, err := cmd.Flags().GetBool("no-cache")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	kind, err := readBackendKind(emitValue)
	if err != nil {
		return err
	}
	target := backend.NativeTarget()
	if targetValue != "" {
		target, err = backend.ParseTarget(targetValue)
		if err != nil {
			return err
		}
	}
	uiModeValue, err := readUIMode(uiValue)
	if err != nil {
		return err
	}

	inputs := args
	outDir := outValue
	if len(inputs) == 0 {
		manifest, found, mErr := project.FindAndLoad(".")
		if mErr != nil {
			return mErr
		}
		if !found {
			return errors.New(noCtrlTomlMessage)
		}
		mainPath := manifest.MainPath()
		if _, statErr := os.Stat(mainPath); statErr != nil {
			return fmt.Errorf("%s: [build].main: %w", manifest.Path, statErr)
		}
		inputs = []string{mainPath}
		if outDir == "" {
			outDir = manifest.OutDir()
		}
	}
	if outDir == "" {
		outDir = "."
	}

	var cache *driver.ObjectCache
	if !noCache {
		cache, err = driver.OpenObjectCache("ctrl")
		if err != nil {
			return fmt.Errorf("failed to open the object cache (try --no-cache): %w", err)
		}
	}

	reqs := make([]driver.CompileRequest, len(inputs))
	for i, input := range inputs {
		reqs[i] = driver.CompileRequest{
			InputPath: input,
			OutputDir: outDir,
			Backend:   kind,
			Target:    target,
			NoCache:   noCache,
			Cache:     cache,
		}
	}

	useTUI := shouldUseTUI(uiModeValue)
	doBuild := func(ctx context.Context, withUI bool) ([]driver.CompileResult, error) {
		if withUI {
			return runBuildAllWithUI(ctx, "ctrl build", reqs, jobs)
		}
		return driver.BuildAll(ctx, reqs, jobs)
	}

	results, err := doBuild(cmd.Context(), useTUI)
	reportBuildResults(os.Stdout, results, quiet, showTimings)
	if err != nil {
		return err
	}

	if watch {
		if !quiet {
			_, _ = fmt.Fprintf(os.Stdout, "watching %d input(s) for changes\n", len(inputs))
		}
		// The TUI does not survive repeated runs; watch mode reports plainly.
		return driver.Watch(cmd.Context(), inputs, 300*time.Millisecond, func(changed string) {
			results, buildErr := doBuild(context.Background(), false)
			if buildErr != nil {
				_, _ = fmt.Fprintf(os.Stderr, "rebuild failed: %v\n", buildErr)
			}
			reportBuildResults(os.Stdout, results, quiet, showTimings)
		})
	}
	return nil
}

func reportBuildResults(out *os.File, results []driver.CompileResult, quiet, showTimings bool) {
	for _, res := range results {
		if res.OutputPath == "" {
			continue
		}
		if !quiet {
			if res.CacheHit {
				_, _ = fmt.Fprintf(out, "built %s (cached)\n", res.OutputPath)
			} else {
				_, _ = fmt.Fprintf(out, "built %s\n", res.OutputPath)
			}
		}
		if showTimings {
			printStageTimings(out, res.Timings, false)
			if len(res.Report.Phases) > 0 {
				_, _ = fmt.Fprint(out, res.Report.Summary())
			}
		}
	}
}

func readBackendKind(value string) (pipeline.Backend, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "native":
		return pipeline.BackendNative, nil
	case "qbe":
		return pipeline.BackendQBE, nil
	case "llvm":
		return pipeline.BackendLLVM, nil
	default:
		return "", fmt.Errorf("invalid --emit value %q (expected native|qbe|llvm)", value)
	}
}

func init() {
	buildCmd.Flags().String("emit", "native", "code generator (native|qbe|llvm)")
	buildCmd.Flags().String("target", "", "target as os/arch (defaults to the host)")
	buildCmd.Flags().String("out", "", "artifact directory (defaults to ctrl.toml [build].out or .)")
	buildCmd.Flags().String("ui", "auto", "user interface (auto|on|off)")
	buildCmd.Flags().Bool("watch", false, "rebuild when an input changes")
	buildCmd.Flags().Int("jobs", 0, "maximum concurrent compiles (0 = number of CPUs)")
	buildCmd.Flags().Bool("no-cache", false, "bypass the object cache")
}
