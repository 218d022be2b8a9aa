package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zenthial/ctrl/internal/backend"
	"github.com/Zenthial/ctrl/internal/backend/native"
	"github.com/Zenthial/ctrl/internal/ir"
)

var demoCmd = &cobra.Command{
	Use:   "demo [flags]",
	Short: "Emit a sample object from the code generator",
	Long:  `Build a small function with the IR builder, compile it for the host machine and write the object file. Useful for checking that the toolchain produces linkable artifacts without any input program.`,
	Args:  cobra.NoArgs,
	RunE:  demoExecution,
}

func init() {
	demoCmd.Flags().String("out", ".", "directory for the object file")
}

func demoExecution(cmd *cobra.Command, args []string) error {
	outDir, err := cmd.Flags().GetString("out")
	if err != nil {
		return err
	}
	quiet, err := cmd.Root().PersistentFlags().GetBool("quiet")
	if err != nil {
		return err
	}

	mod, err := native.New(backend.NativeTarget())
	if err != nil {
		return err
	}

	fn, err := demoFunc()
	if err != nil {
		return err
	}
	id, err := mod.DeclareFunc(fn.Name, fn.Linkage, fn.Sig)
	if err != nil {
		return err
	}
	if err := mod.DefineFunc(id, fn); err != nil {
		return err
	}
	obj, err := mod.Emit()
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, "example"+mod.FileExt())
	if err := os.MkdirAll(outDir, 0o750); err != nil {
		return fmt.Errorf("failed to create %q: %w", outDir, err)
	}
	if err := os.WriteFile(path, obj, 0o644); err != nil {
		return fmt.Errorf("failed to write %q: %w", path, err)
	}
	if !quiet {
		_, _ = fmt.Fprintf(os.Stdout, "wrote %s\n", path)
	}
	return nil
}

// demoFunc builds tester() -> I32 { return 37 + 5 }.
func demoFunc() (*ir.Func, error) {
	b := ir.NewBuilder("tester", ir.LinkageExport, ir.Signature{Ret: ir.TypeI32})
	if err := b.SwitchTo(b.NewBlock()); err != nil {
		return nil, err
	}
	x, err := b.IConst(ir.TypeI32, 37)
	if err != nil {
		return nil, err
	}
	y, err := b.IConst(ir.TypeI32, 5)
	if err != nil {
		return nil, err
	}
	sum, err := b.Bin(ir.BinIadd, ir.TypeI32, x, y)
	if err != nil {
		return nil, err
	}
	if err := b.Return(sum); err != nil {
		return nil, err
	}
	return b.Finalize()
}
