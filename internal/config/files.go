package config

import (
	"path/filepath"
	"strings"
)

// sourceExtensions are the file extensions recognised as HDL sources
var sourceExtensions = map[string]bool{
	".v":   true,
	".vh":  true,
	".sv":  true,
	".svh": true,
}

// IsSourceFile reports whether path looks like a Verilog/SystemVerilog file
func IsSourceFile(path string) bool {
	return sourceExtensions[strings.ToLower(filepath.Ext(path))]
}

// OutputPath returns outputPath when set, otherwise the configured output
// name in the directory of inputPath
func (c *Config) OutputPath(inputPath, outputPath string) string {
	if outputPath != "" {
		return outputPath
	}
	name := c.Harness.OutputName
	if name == "" {
		name = defaultOutputName
	}
	return filepath.Join(filepath.Dir(inputPath), name)
}

// SamePath reports whether a and b name the same file
func SamePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}
