package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/adk"
	"github.com/user/vulnscan-adk/pkg/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration (providers, keys, paths, embedding cache)",
}

// configPath is the file edited by the config subcommands: --config when
// given, else the default location.
func configPath() (string, error) {
	if cfgFile != "" {
		return cfgFile, nil
	}
	return config.GetConfigPath()
}

// editConfig loads the stored config, applies fn and writes it back.
// Environment overrides and defaults are never persisted.
func editConfig(fn func(cfg *config.Config) error) (*config.Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	cfg, err := config.ReadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	if err := fn(cfg); err != nil {
		return nil, err
	}
	if err := config.SaveConfigTo(cfg, path); err != nil {
		return nil, fmt.Errorf("save config %s: %w", path, err)
	}
	Logger.Debug("config saved", "path", path)
	return cfg, nil
}

var setCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long:  "Set a configuration value. Keys: " + strings.Join(config.SettingKeys(), ", "),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if _, err := editConfig(func(cfg *config.Config) error { return cfg.Set(key, value) }); err != nil {
			return err
		}
		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [key]",
	Short: "Show the effective configuration, or one value",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		keys := config.SettingKeys()
		if len(args) == 1 {
			keys = args
		}
		for _, k := range keys {
			v, err := AppConfig.Get(k)
			if err != nil {
				return err
			}
			if k == "redis_password" && v != "" {
				v = "********"
			}
			fmt.Printf("%-18s %s\n", k, v)
		}
		return nil
	},
}

var setKeyCmd = &cobra.Command{
	Use:   "set-key",
	Short: "Set the API key for a provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider, _ := cmd.Flags().GetString("provider")
		key, _ := cmd.Flags().GetString("key")
		if provider == "" || key == "" {
			return fmt.Errorf("--provider and --key are required")
		}
		provider = strings.ToLower(provider)
		if _, err := editConfig(func(cfg *config.Config) error {
			cfg.SetAPIKey(provider, key)
			return nil
		}); err != nil {
			return err
		}
		fmt.Printf("API key saved for provider: %s\n", provider)
		return nil
	},
}

var listModelsCmd = &cobra.Command{
	Use:   "list-models",
	Short: "List available models from the configured provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := AppConfig.SelectedProvider
		apiKey := AppConfig.ResolveAPIKey(provider)
		if apiKey == "" {
			return fmt.Errorf("no API key for %s; run 'vulnscan-adk config set-key' or 'config setup'", provider)
		}

		ctx := context.Background()
		p, err := adk.NewProvider(ctx, provider, apiKey, "", Logger.Named("llm"))
		if err != nil {
			return err
		}
		models, err := p.ListModels(ctx)
		if err != nil {
			return fmt.Errorf("list models: %w", err)
		}

		fmt.Printf("Available Models (%s):\n", provider)
		for _, m := range models {
			mark := " "
			if m == AppConfig.SelectedModel {
				mark = "*"
			}
			fmt.Printf("%s %s\n", mark, m)
		}
		return nil
	},
}

func init() {
	setKeyCmd.Flags().StringP("provider", "p", "", "Provider ("+strings.Join(adk.Providers, ", ")+")")
	setKeyCmd.Flags().StringP("key", "k", "", "API Key")

	configCmd.AddCommand(setCmd)
	configCmd.AddCommand(getCmd)
	configCmd.AddCommand(setKeyCmd)
	configCmd.AddCommand(listModelsCmd)
	rootCmd.AddCommand(configCmd)
}
