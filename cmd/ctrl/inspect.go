package main

import (
	"debug/elf"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <file.o>",
	Short: "Describe a compiled object file",
	Long:  `Print the header, sections and symbols of a relocatable object produced by the native backend.`,
	Args:  cobra.ExactArgs(1),
	RunE:  inspectExecution,
}

func inspectExecution(cmd *cobra.Command, args []string) error {
	path := args[0]
	f, err := elf.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open %q as an ELF object: %w", path, err)
	}
	defer func() { _ = f.Close() }()

	out := os.Stdout
	_, _ = fmt.Fprintf(out, "%s:\n", path)
	_, _ = fmt.Fprintf(out, "  class   %s\n", f.Class)
	_, _ = fmt.Fprintf(out, "  type    %s\n", f.Type)
	_, _ = fmt.Fprintf(out, "  machine %s\n", f.Machine)

	_, _ = fmt.Fprintln(out, "sections:")
	for _, s := range f.Sections {
		if s.Name == "" {
			continue
		}
		_, _ = fmt.Fprintf(out, "  %-18s %6d bytes\n", s.Name, s.Size)
	}

	syms, err := f.Symbols()
	if err != nil && !errors.Is(err, elf.ErrNoSymbols) {
		return fmt.Errorf("failed to read the symbol table of %q: %w", path, err)
	}
	if len(syms) > 0 {
		_, _ = fmt.Fprintln(out, "symbols:")
		for _, sym := range syms {
			_, _ = fmt.Fprintf(out, "  %-18s size %d\n", sym.Name, sym.Size)
		}
	}
	return nil
}
