package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/matcher"
	"github.com/user/vulnscan-adk/pkg/report"
	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/scanner"
)

var scanFlags struct {
	rules    string
	out      string
	format   string
	workers  int
	baseline string
}

var scanCmd = &cobra.Command{
	Use:   "scan <file...>",
	Short: "Scan files with the rule set and write a findings report",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format := strings.ToLower(scanFlags.format)
		if format != "json" && format != "sarif" {
			return fmt.Errorf("unsupported format %q (json, sarif)", scanFlags.format)
		}
		rulesPath := firstNonEmpty(scanFlags.rules, AppConfig.RulesPath)
		workers := scanFlags.workers
		if workers <= 0 {
			workers = AppConfig.Workers
		}
		out := scanFlags.out
		if out == "" {
			out = filepath.Join(AppConfig.ReportsDir, "latest."+format)
		}

		set, err := rules.Load(rulesPath, Logger)
		if err != nil {
			return err
		}
		compiled, warnings := matcher.CompileSet(set, Logger)
		if len(compiled) == 0 {
			return fmt.Errorf("no usable rules in %s", rulesPath)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		runID := report.NewRunID()
		Logger.Info("scan", "run_id", runID, "rules", len(compiled), "compile_warnings", len(warnings))
		findings, scanErr := scanner.Scan(ctx, args, compiled, scanner.Options{Workers: workers, Logger: Logger.Named("scanner")})
		if scanErr != nil && !errors.Is(scanErr, context.Canceled) {
			return scanErr
		}

		switch format {
		case "sarif":
			err = report.WriteSARIF(out, findings, set, runID)
		default:
			err = report.WriteJSON(out, findings)
		}
		if err != nil {
			return err
		}

		sum := scanner.Summarize(args, findings)
		fmt.Printf("[+] Scan complete. %d finding(s) in %d of %d file(s), %d missing. Findings -> %s\n",
			sum.Findings, sum.MatchedFiles, sum.Files, sum.MissingFiles, out)

		if scanFlags.baseline != "" {
			base, err := report.ReadJSON(scanFlags.baseline)
			if err != nil {
				return err
			}
			d := report.Compare(findings, base)
			fmt.Printf("[=] vs %s: %d new, %d fixed, %d unchanged\n", scanFlags.baseline, len(d.New), len(d.Fixed), len(d.Unchanged))
		}
		if scanErr != nil {
			return fmt.Errorf("scan interrupted, partial report written: %w", scanErr)
		}
		return nil
	},
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func init() {
	scanCmd.Flags().StringVar(&scanFlags.rules, "rules", "", "Rule file (default from config: rules/patterns.yml)")
	scanCmd.Flags().StringVarP(&scanFlags.out, "out", "o", "", "Report path (default reports/latest.<format>)")
	scanCmd.Flags().StringVarP(&scanFlags.format, "format", "f", "json", "Report format: json or sarif")
	scanCmd.Flags().IntVarP(&scanFlags.workers, "workers", "w", 0, "Files scanned in parallel (default from config)")
	scanCmd.Flags().StringVar(&scanFlags.baseline, "baseline", "", "JSON report to compare the findings against")
	rootCmd.AddCommand(scanCmd)
}
