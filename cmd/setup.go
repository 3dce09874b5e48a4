package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/adk"
	"github.com/user/vulnscan-adk/pkg/config"
)

// modelLister fetches the models a provider offers for a key.
type modelLister func(ctx context.Context, provider, apiKey string) ([]string, error)

func providerModels(ctx context.Context, provider, apiKey string) ([]string, error) {
	p, err := adk.NewProvider(ctx, provider, apiKey, "", Logger.Named("llm"))
	if err != nil {
		return nil, err
	}
	return p.ListModels(ctx)
}

type wizard struct {
	in     *bufio.Scanner
	out    io.Writer
	models modelLister
	// effective supplies the values shown for settings the file leaves unset.
	effective *config.Config
}

// ask prints label with the current value and returns the answer, or def
// when the answer is blank.
func (w *wizard) ask(label, def string) string {
	if def != "" {
		fmt.Fprintf(w.out, "%s [%s] > ", label, def)
	} else {
		fmt.Fprintf(w.out, "%s > ", label)
	}
	if !w.in.Scan() {
		return def
	}
	if v := strings.TrimSpace(w.in.Text()); v != "" {
		return v
	}
	return def
}

// run walks through provider, key, model and the scanner settings, editing
// cfg in place.
func (w *wizard) run(ctx context.Context, cfg *config.Config) error {
	fmt.Fprintln(w.out, "Step 1: Choose your AI Provider")
	for i, p := range adk.Providers {
		fmt.Fprintf(w.out, "%d. %s\n", i+1, p)
	}
	provider, err := pickProvider(w.ask("Enter number or name", cfg.SelectedProvider))
	if err != nil {
		return err
	}

	fmt.Fprintf(w.out, "\nStep 2: API key for %s\n", provider)
	apiKey := w.ask("API key (blank keeps the stored one)", "")
	if apiKey == "" {
		apiKey = cfg.GetAPIKey(provider)
	}
	if apiKey == "" {
		return fmt.Errorf("an API key is required for %s", provider)
	}

	fmt.Fprintln(w.out, "\nStep 3: Validating key and fetching available models...")
	model := cfg.SelectedModel
	models, err := w.models(ctx, provider, apiKey)
	switch {
	case err != nil:
		fmt.Fprintf(w.out, "Warning: could not fetch models: %v\n", err)
		model = w.ask("Model name", model)
	case len(models) == 0:
		model = w.ask("Model name", model)
	default:
		for i, m := range models {
			fmt.Fprintf(w.out, "%d. %s\n", i+1, m)
		}
		sel, convErr := strconv.Atoi(w.ask("Select model (number)", "1"))
		if convErr != nil || sel < 1 || sel > len(models) {
			fmt.Fprintln(w.out, "Invalid selection. Using the first model.")
			sel = 1
		}
		model = models[sel-1]
	}

	fmt.Fprintln(w.out, "\nStep 4: Scanner settings (blank keeps the value shown)")
	answers := []struct{ key, label string }{
		{"rules_path", "Rule file"},
		{"index_dir", "Index directory"},
		{"embedding_model", "Embedding model"},
		{"redis_addr", "Redis address for the embedding cache (optional, '-' to disable)"},
	}
	for _, a := range answers {
		cur, _ := cfg.Get(a.key)
		if cur == "" && w.effective != nil {
			cur, _ = w.effective.Get(a.key)
		}
		v := w.ask(a.label, cur)
		if v == "-" {
			v = ""
		}
		if err := cfg.Set(a.key, v); err != nil {
			return err
		}
	}

	cfg.SelectedProvider = provider
	cfg.SelectedModel = model
	cfg.SetAPIKey(provider, apiKey)
	return nil
}

func pickProvider(choice string) (string, error) {
	choice = strings.ToLower(strings.TrimSpace(choice))
	if n, err := strconv.Atoi(choice); err == nil && n >= 1 && n <= len(adk.Providers) {
		return adk.Providers[n-1], nil
	}
	for _, p := range adk.Providers {
		if p == choice {
			return p, nil
		}
	}
	return "", fmt.Errorf("unknown provider %q", choice)
}

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Interactive setup wizard",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Println("vulnscan-adk setup")
		fmt.Println("---------------------------------")

		w := &wizard{in: bufio.NewScanner(os.Stdin), out: os.Stdout, models: providerModels, effective: AppConfig}
		cfg, err := editConfig(func(cfg *config.Config) error {
			return w.run(context.Background(), cfg)
		})
		if err != nil {
			return err
		}

		fmt.Println("---------------------------------")
		fmt.Printf("Provider:  %s\n", cfg.SelectedProvider)
		fmt.Printf("Model:     %s\n", cfg.SelectedModel)
		fmt.Printf("Rules:     %s\n", cfg.RulesPath)
		fmt.Printf("Index:     %s\n", cfg.IndexDir)
		fmt.Println("You can now run 'vulnscan-adk index build' and 'vulnscan-adk interactive'")
		return nil
	},
}

func init() {
	configCmd.AddCommand(setupCmd)
}
