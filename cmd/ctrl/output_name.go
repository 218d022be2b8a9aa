package main

import (
	"path/filepath"
	"strings"
)

func outputNameFromPath(inputPath string) string {
	base := filepath.Base(inputPath)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
