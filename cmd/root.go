package cmd

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/config"
	"github.com/user/vulnscan-adk/pkg/logger"
)

var (
	cfgFile   string
	DebugMode bool
	AppConfig *config.Config
	Logger    hclog.Logger
)

var rootCmd = &cobra.Command{
	Use:          "vulnscan-adk",
	SilenceUsage: true,
	Short:        "Known-vulnerability signature scanner with semantic CVE correlation",
	Long: `vulnscan-adk matches vulnerability signatures derived from public CVE records
against local files, and relates new vulnerability descriptions to known
records and rules through a nearest-neighbour index over their descriptions.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initConfig()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() error {
	if err := config.LoadEnv(); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	var err error
	if cfgFile != "" {
		AppConfig, err = config.LoadConfigFrom(cfgFile)
	} else {
		AppConfig, err = config.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if DebugMode {
		AppConfig.LogLevel = "DEBUG"
	}
	Logger = logger.NewLogger(AppConfig, "vulnscan")
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.vulnscan-adk/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&DebugMode, "debug", false, "Enable debug logging")
}
