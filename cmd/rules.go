package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/classifier"
	"github.com/user/vulnscan-adk/pkg/matcher"
	"github.com/user/vulnscan-adk/pkg/rules"
)

var generateFlags struct {
	feed  string
	rules string
}

var generateRulesCmd = &cobra.Command{
	Use:   "generate-rules",
	Short: "Classify feed records into simulation-only rules and merge them into the rule file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		feedPath := firstNonEmpty(generateFlags.feed, AppConfig.FeedPath)
		rulesPath := firstNonEmpty(generateFlags.rules, AppConfig.RulesPath)
		added, total, err := classifier.UpdateRuleFile(feedPath, rulesPath, Logger.Named("classifier"))
		if err != nil {
			return err
		}
		fmt.Printf("[+] %d new rule(s) added, %d total -> %s\n", added, total, rulesPath)
		return nil
	},
}

var checkRulesCmd = &cobra.Command{
	Use:   "check-rules [file]",
	Short: "Load and compile a rule file, reporting patterns that fail to compile",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path := AppConfig.RulesPath
		if len(args) == 1 {
			path = args[0]
		}
		set, err := rules.Load(path, Logger)
		if err != nil {
			return err
		}
		compiled, warnings := matcher.CompileSet(set, nil)
		for _, w := range warnings {
			fmt.Printf("[!] %v\n", w)
		}
		fmt.Printf("[+] %s: %d rule(s), %d usable, %d pattern warning(s)\n", path, len(set), len(compiled), len(warnings))
		return nil
	},
}

func init() {
	generateRulesCmd.Flags().StringVar(&generateFlags.feed, "feed", "", "Feed JSON (.json or .json.gz)")
	generateRulesCmd.Flags().StringVar(&generateFlags.rules, "rules", "", "Rule file to merge into")
	rootCmd.AddCommand(generateRulesCmd)
	rootCmd.AddCommand(checkRulesCmd)
}
