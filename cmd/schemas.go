// =============================================================================
// pain.001 Converter - Schemas Command
// =============================================================================
//
// Lists the supported pain.001 schema variants and what distinguishes them.
//
// COMMAND USAGE:
//   converter schemas
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/ginjaninja78/pain001-converter/internal/schema"
	"github.com/spf13/cobra"
)

var schemasCmd = &cobra.Command{
	Use:   "schemas",
	Short: "List the supported schema variants",
	Long: `List every supported pain.001 schema variant with its namespace, the element
used for agent BICs, the currency and the transactions it accepts.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return printSchemas(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(schemasCmd)
}

// printSchemas writes one line per variant in registry order.
func printSchemas(out io.Writer) error {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "VARIANT\tCURRENCY\tAGENT\tDATE\tSERVICE LEVEL\tTRANSACTIONS\tNAMESPACE")

	for _, v := range schema.All() {
		caps, err := schema.Lookup(v)
		if err != nil {
			return err
		}

		date := "ReqdExctnDt"
		if caps.WrapsExecutionDate {
			date = "ReqdExctnDt/Dt"
		}
		serviceLevel := "always"
		if caps.OmitsServiceLevelForSEPA {
			serviceLevel = "omitted for SEPA"
		}
		accepts := "BIC + SEPA only"
		if caps.AcceptsAnyTransaction {
			accepts = "any"
		}

		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			v, caps.Currency, caps.AgentFieldName(), date, serviceLevel, accepts, caps.Namespace)
	}

	return w.Flush()
}
