package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"reposcope/internal/explain"
)

// Version is set by main from the build-time version.
var Version = "dev"

var (
	flagDir      string
	flagDB       string
	flagProvider string
	flagModel    string
	flagLogLevel string
	flagVerbose  int
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:   "reposcope [path]",
	Short: "Grounded explanations of a code repository",
	Long: `reposcope indexes a repository and answers questions about it using only
evidence found in the code. Run without a subcommand to open the interactive UI.`,
	Args:          cobra.MaximumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := explain.ValidateCatalog(); err != nil {
			return fmt.Errorf("message catalog: %w", err)
		}
		return nil
	},
}

// Execute runs the root command and exits non-zero on error.
func Execute() {
	rootCmd.Version = Version
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Assigned here: runTUI reads rootCmd's flags.
	rootCmd.RunE = runTUI

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flagDir, "dir", "C", "", "project directory (default: working directory)")
	pf.StringVar(&flagDB, "db", "", "database path (default <project>/.reposcope/index.db)")
	pf.StringVar(&flagProvider, "provider", "", "completion provider: ollama, openai or none")
	pf.StringVar(&flagModel, "model", "", "completion model for the selected provider")
	pf.StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error or silent")
	pf.CountVarP(&flagVerbose, "verbose", "v", "increase log verbosity (-v info, -vv debug)")
	pf.BoolVarP(&flagQuiet, "quiet", "q", false, "suppress logging")
}
