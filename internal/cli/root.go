package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fundus/internal/logging"
	"github.com/ppiankov/fundus/internal/model"
)

// version is set at build time via -ldflags
var version = "v0.1.0"

var (
	cfgFile string
	verbose bool
	logJSON bool

	// env and flag overrides for scalar config keys
	v = newViper()

	cfg        *model.Config
	cfgUsed    string
	rootLogger *slog.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "fundus",
	Short: "Fundus - Filter, normalize and classify educational metadata",
	Long: `Fundus reads line-separated JSON dumps of educational metadata,
filters and normalizes the records, and scores each survivor with a
flat classifier or a joint topic distribution.

Joint results are assigned by threshold policy: a single confident topic,
a plausible set covering most of the probability mass, or unclassified.`,
	SilenceErrors:     true,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Display the version number of Fundus.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "fundus %s\n", version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: $HOME/.fundus/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "emit logs as JSON")

	_ = v.BindPFlag("log_level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(versionCmd)
}

// setup loads configuration and installs the logger before any subcommand runs
func setup(cmd *cobra.Command, args []string) error {
	loaded, used, err := loadConfig(cfgFile, v)
	if err != nil {
		return err
	}
	if verbose {
		loaded.LogLevel = "debug"
		loaded.Output.Verbose = true
	}

	logger, err := logging.Init(loaded.LogLevel, logJSON)
	if err != nil {
		return &model.ConfigurationError{Option: "log_level", Reason: err.Error()}
	}

	if used != "" {
		logger.Debug("Using config file", "path", used)
	}

	cfg, cfgUsed, rootLogger = loaded, used, logger
	return nil
}
