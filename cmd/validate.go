// =============================================================================
// pain.001 Converter - Validate Command
// =============================================================================
//
// Loads the main configuration and every debtor configuration and reports
// problems without touching any input file.
//
// COMMAND USAGE:
//   converter validate
//
// CHECKS:
//   - The configuration files parse and pass their own validation
//   - Each debtor account is a valid debtor for a pain.001 message
//   - Every file currently in the input directory matches a debtor
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ginjaninja78/pain001-converter/internal/config"
	"github.com/ginjaninja78/pain001-converter/internal/types"
	"github.com/ginjaninja78/pain001-converter/internal/validation"
	"github.com/ginjaninja78/pain001-converter/pkg/utils"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration without processing",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		mainConfig, debtorConfigs, err := loadConfig(cfgFile)
		if err != nil {
			return err
		}

		problems := validateSetup(mainConfig, debtorConfigs, cmd.OutOrStdout())
		if problems > 0 {
			return fmt.Errorf("%d configuration problem(s) found", problems)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

// validateSetup prints a report and returns the number of problems found.
func validateSetup(mainConfig *config.MainConfig, debtorConfigs map[string]*config.DebtorConfig, out io.Writer) int {
	problems := 0

	codes := make([]string, 0, len(debtorConfigs))
	for code := range debtorConfigs {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	fmt.Fprintf(out, "Main configuration OK (default schema %s)\n", mainConfig.DefaultSchema)

	for _, code := range codes {
		debtor := debtorConfigs[code]
		account := types.Account{
			Name: strings.TrimSpace(debtor.Account.Name),
			IBAN: validation.CompactIBAN(debtor.Account.IBAN),
			BIC:  strings.ToUpper(strings.TrimSpace(debtor.Account.BIC)),
		}

		errs := validation.ValidateAccount(account)
		if len(debtor.FileMatchingPatterns) == 0 {
			fmt.Fprintf(out, "  ! %s: no file_matching_patterns, no file will match\n", code)
		}
		if len(errs) > 0 {
			problems += len(errs)
			fmt.Fprintf(out, "  ✗ %s (%s): %v\n", code, debtor.Variant(), errs)
			continue
		}
		fmt.Fprintf(out, "  ✓ %s (%s)\n", code, debtor.Variant())
	}

	fm := utils.NewFileManager(mainConfig.InputDir, mainConfig.OutputDir, mainConfig.InputArchiveDir, mainConfig.OutputArchiveDir)
	files, err := fm.DiscoverInputFiles()
	if err != nil {
		fmt.Fprintf(out, "  ! input directory: %v\n", err)
		return problems
	}
	for _, file := range files {
		if config.FindDebtor(file, debtorConfigs) == nil {
			problems++
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(file), errNoDebtor)
		}
	}

	return problems
}
