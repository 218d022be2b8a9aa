package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/Zenthial/ctrl/internal/driver"
	"github.com/Zenthial/ctrl/internal/project"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [path]",
	Short: "Remove build artifacts",
	Long:  "Remove the output directory of the enclosing ctrl project. With --cache, also drop the shared object cache.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runClean,
}

func init() {
	cleanCmd.Flags().Bool("cache", false, "also drop the shared object cache")
}

func runClean(cmd *cobra.Command, args []string) error {
	dropCache, err := cmd.Flags().GetBool("cache")
	if err != nil {
		return err
	}

	baseDir := "."
	if len(args) > 0 && args[0] != "" {
		baseDir = args[0]
	}

	manifest, found, err := project.FindAndLoad(baseDir)
	if err != nil {
		return err
	}
	switch {
	case !found && !dropCache:
		return fmt.Errorf("no %s found from %q", project.ManifestName, baseDir)
	case !found:
		_, _ = fmt.Fprintf(os.Stdout, "no %s found, cleaning the cache only\n", project.ManifestName)
	default:
		if err := cleanProjectOutputs(manifest); err != nil {
			return err
		}
	}

	if dropCache {
		cache, err := driver.OpenObjectCache("ctrl")
		if err != nil {
			return err
		}
		if err := cache.Drop(); err != nil {
			return fmt.Errorf("failed to drop the object cache: %w", err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "dropped the object cache\n")
	}
	return nil
}

// cleanProjectOutputs removes what build produced. A dedicated output
// directory goes away wholesale; when outputs land in the project root,
// only the per-backend artifacts are deleted so sources stay intact.
func cleanProjectOutputs(m *project.Manifest) error {
	outDir := m.OutDir()
	if outDir != m.Root {
		info, err := os.Stat(outDir)
		if errors.Is(err, os.ErrNotExist) {
			_, _ = fmt.Fprintf(os.Stdout, "nothing to clean\n")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to stat %q: %w", outDir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%q is not a directory", outDir)
		}
		if err := os.RemoveAll(outDir); err != nil {
			return fmt.Errorf("failed to remove %q: %w", outDir, err)
		}
		_, _ = fmt.Fprintf(os.Stdout, "removed %s\n", outDir)
		return nil
	}

	// Artifacts are named after the program, which usually matches the
	// package name. Try the main file's basename as well.
	bases := []string{m.Config.Package.Name}
	if base := outputNameFromPath(m.MainPath()); base != bases[0] {
		bases = append(bases, base)
	}
	removed := 0
	for _, base := range bases {
		for _, ext := range []string{".o", ".s", ".ll"} {
			path := filepath.Join(outDir, base+ext)
			err := os.Remove(path)
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			if err != nil {
				return fmt.Errorf("failed to remove %q: %w", path, err)
			}
			_, _ = fmt.Fprintf(os.Stdout, "removed %s\n", path)
			removed++
		}
	}
	if removed == 0 {
		_, _ = fmt.Fprintf(os.Stdout, "nothing to clean\n")
	}
	return nil
}
