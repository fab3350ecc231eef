// =============================================================================
// pain.001 Converter - Main Entry Point
// =============================================================================
//
// This is the main entry point for the pain.001 Converter CLI application.
// It delegates command execution to the cmd package.
//
// USAGE:
//   converter process   - Convert all payment sheets in the input directory
//   converter validate  - Validate configuration files without processing
//   converter schemas   - List the supported pain.001 schema variants
//   converter version   - Display the application version
//
// ARCHITECTURE:
//   - cmd/        : CLI command definitions (Cobra)
//   - internal/   : Message assembly, validation, readers and the pipeline
//   - pkg/        : Shared file management utilities
//   - configs/    : Debtor-specific YAML configurations
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/pain001-converter/cmd"
)

func main() {
	cmd.Execute()
}
