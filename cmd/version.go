// =============================================================================
// pain.001 Converter - Version Command
// =============================================================================
//
// This file defines the 'version' command, which displays the application
// version and build information.
//
// COMMAND USAGE:
//   converter version
//
// OUTPUT:
//   pain.001 Converter
//   Version:    1.0.0
//   Build Date: 2026-10-19
//   Go Version: go1.24.11
//   Schemas:    pain.001.003.03, pain.001.002.03, ...
//
// =============================================================================

package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/spf13/cobra"
)

// =============================================================================
// VERSION INFORMATION
// =============================================================================
// These variables are set at build time using ldflags:
//   go build -ldflags "-X 'github.com/ginjaninja78/pain001-converter/cmd.Version=1.0.0'"

// Version is the application version.
var Version = "1.0.0"

// BuildDate is the date the application was built.
var BuildDate = "unknown"

// versionCmd represents the 'version' command.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display the application version",
	Long:  `Display the application version, build date, Go runtime version and supported schemas.`,
	Run: func(cmd *cobra.Command, args []string) {
		variants := make([]string, 0, len(schema.All()))
		for _, v := range schema.All() {
			variants = append(variants, string(v))
		}

		out := cmd.OutOrStdout()
		fmt.Fprintln(out, "pain.001 Converter")
		fmt.Fprintf(out, "Version:    %s\n", Version)
		fmt.Fprintf(out, "Build Date: %s\n", BuildDate)
		fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
		fmt.Fprintf(out, "Schemas:    %s\n", strings.Join(variants, ", "))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
