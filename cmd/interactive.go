package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/adk"
	"github.com/user/vulnscan-adk/pkg/engine"
	"github.com/user/vulnscan-adk/pkg/wrappers"
)

var interactiveCmd = &cobra.Command{
	Use:   "interactive",
	Short: "Start the interactive agent session",
	Run: func(cmd *cobra.Command, args []string) {
		providerName := AppConfig.SelectedProvider
		if providerName == "" {
			providerName = "gemini"
		}

		apiKey := AppConfig.ResolveAPIKey(providerName)
		if apiKey == "" {
			fmt.Println("Error: API Key not found.")
			fmt.Println("Please run 'vulnscan-adk config setup' to configure your keys.")
			return
		}

		ctx := context.Background()
		modelName := AppConfig.SelectedModel
		fmt.Printf("Connecting to %s (Model: %s)...\n", providerName, modelName)

		provider, err := adk.NewProvider(ctx, providerName, apiKey, modelName, Logger.Named("llm"))
		if err != nil {
			fmt.Printf("Error creating AI provider: %v\n", err)
			return
		}
		if closer, ok := provider.(interface{ Close() }); ok {
			defer closer.Close()
		}

		embedder, cleanup, err := newEmbedder(ctx)
		if err != nil {
			fmt.Printf("Warning: correlation disabled: %v\n", err)
		}
		defer cleanup()

		ws := &wrappers.Workspace{
			RulesPath:   AppConfig.RulesPath,
			FeedPath:    AppConfig.FeedPath,
			IndexDir:    AppConfig.IndexDir,
			CatalogPath: AppConfig.CatalogPath,
			Workers:     AppConfig.Workers,
			Embedder:    embedder,
			Graph:       engine.NewFindingGraph(),
			Logger:      Logger.Named("tools"),
		}
		defer ws.Close()

		agent := adk.NewAgent(provider, Logger.Named("agent"))
		for _, t := range ws.Tools() {
			agent.RegisterTool(t)
		}
		prompt, err := adk.SystemPrompt(agent.Tools())
		if err != nil {
			fmt.Printf("Error rendering system prompt: %v\n", err)
			return
		}
		agent.SetSystemPrompt(prompt)

		scanner := bufio.NewScanner(os.Stdin)
		fmt.Println("\n---------------------------------------------------------")
		fmt.Println("vulnscan-adk agent initialized. Ready for commands.")
		fmt.Println("Example: 'Scan ./config for known vulnerabilities'")
		fmt.Println("Example: 'Which CVEs look like: login form allows SQL injection?'")
		fmt.Println("Type 'quit' or 'exit' to stop.")
		fmt.Println("---------------------------------------------------------")

		for {
			fmt.Print("\n> ")
			if !scanner.Scan() {
				break
			}
			input := scanner.Text()
			if input == "quit" || input == "exit" {
				break
			}
			if input == "" {
				continue
			}

			fmt.Print("Agent thinking... ")
			resp, err := agent.Chat(ctx, input, func(msg string) {
				fmt.Printf("\r\033[K[Progress]: %s\nAgent thinking... ", msg)
			})
			fmt.Print("\r\033[K")

			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Printf("\n[Agent]: %s\n", resp)
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(interactiveCmd)
}
