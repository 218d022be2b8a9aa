package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Zenthial/ctrl/internal/ast"
	"github.com/Zenthial/ctrl/internal/ir"
	"github.com/Zenthial/ctrl/internal/lower"
	"github.com/Zenthial/ctrl/internal/pipeline"
)

var runCmd = &cobra.Command{
	Use:   "run [flags] <input.ctrlast> [args...]",
	Short: "Compile and execute a ctrl program",
	Long:  `Lower a typed ctrl program and execute one of its functions with the reference interpreter. Trailing integer arguments are passed to the entry function.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExecution,
}

func init() {
	runCmd.Flags().String("entry", "main", "function to execute")
}

func runExecution(cmd *cobra.Command, args []string) error {
	inputPath := args[0]
	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return err
	}
	showTimings, err := cmd.Root().PersistentFlags().GetBool("timings")
	if err != nil {
		return err
	}

	var timings pipeline.Timings

	decodeStart := time.Now()
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("failed to read %q: %w", inputPath, err)
	}
	prog, err := ast.DecodeProgram(bytes.NewReader(raw))
	if err != nil {
		return fmt.Errorf("failed to decode %q: %w", inputPath, err)
	}
	timings.Set(pipeline.StageDecode, time.Since(decodeStart))

	lowerStart := time.Now()
	funcs := make(map[string]*ir.Func, len(prog.Items))
	names := make([]string, 0, len(prog.Items))
	for _, item := range prog.Items {
		fn, lowerErr := lower.LowerFunc(item)
		if lowerErr != nil {
			return lowerErr
		}
		if verifyErr := ir.Verify(fn); verifyErr != nil {
			return fmt.Errorf("%s: %w", fn.Name, verifyErr)
		}
		funcs[fn.Name] = fn
		names = append(names, fn.Name)
	}
	timings.Set(pipeline.StageLower, time.Since(lowerStart))

	fn, ok := funcs[entry]
	if !ok {
		if len(names) == 0 {
			return fmt.Errorf("program %s declares no functions", prog.Name)
		}
		return fmt.Errorf("program %s has no function %q (have: %s)", prog.Name, entry, strings.Join(names, ", "))
	}

	callArgs := make([]int64, 0, len(args)-1)
	for _, a := range args[1:] {
		v, parseErr := strconv.ParseInt(a, 10, 64)
		if parseErr != nil {
			return fmt.Errorf("argument %q is not an integer: %w", a, parseErr)
		}
		callArgs = append(callArgs, v)
	}

	runStart := time.Now()
	result, err := ir.Eval(fn, callArgs...)
	if err != nil {
		return err
	}
	timings.Set(pipeline.StageRun, time.Since(runStart))

	if fn.Sig.Ret != ir.TypeNone {
		_, _ = fmt.Fprintf(os.Stdout, "%d\n", result)
	}
	if showTimings {
		printStageTimings(os.Stdout, timings, true)
	}
	return nil
}
