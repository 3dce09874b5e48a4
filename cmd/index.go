package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/catalog"
	"github.com/user/vulnscan-adk/pkg/correlate"
	"github.com/user/vulnscan-adk/pkg/embed"
	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/rules"
	"github.com/user/vulnscan-adk/pkg/vecindex"
	"github.com/user/vulnscan-adk/pkg/wrappers"
)

var indexFlags struct {
	feed   string
	source string
	dir    string
	k      int
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build and query the vulnerability description index",
}

var indexBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Embed vulnerability descriptions and write the vector index",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		dir := firstNonEmpty(indexFlags.dir, AppConfig.IndexDir)

		var docs []embed.Document
		switch indexFlags.source {
		case "records":
			feedPath := firstNonEmpty(indexFlags.feed, AppConfig.FeedPath)
			records, err := feed.Open(feedPath)
			if err != nil {
				return err
			}
			if err := storeRecords(ctx, records); err != nil {
				return err
			}
			docs = embed.FromRecords(records)
		case "rules":
			set, err := rules.Load(AppConfig.RulesPath, Logger)
			if err != nil {
				return err
			}
			docs = embed.FromRules(set)
		default:
			return fmt.Errorf("unknown source %q (records, rules)", indexFlags.source)
		}

		embedder, cleanup, err := newEmbedder(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		Logger.Info("embedding documents", "count", len(docs), "source", indexFlags.source)
		entries, err := embed.BuildEntries(ctx, embedder, docs)
		if err != nil {
			return err
		}
		idx, err := vecindex.Build(entries)
		if err != nil {
			return err
		}
		if err := idx.Save(dir); err != nil {
			return err
		}
		fmt.Printf("[+] Indexed %d description(s), dim %d -> %s\n", idx.Len(), idx.Dim(), dir)
		return nil
	},
}

func storeRecords(ctx context.Context, records []feed.Record) error {
	c, err := catalog.Open(AppConfig.CatalogPath)
	if err != nil {
		return err
	}
	defer c.Close()
	n, err := c.Upsert(ctx, records)
	if err != nil {
		return err
	}
	Logger.Info("catalog updated", "path", AppConfig.CatalogPath, "records", n)
	return nil
}

var indexQueryCmd = &cobra.Command{
	Use:   "query <text...>",
	Short: "Find the records most similar to a description",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()
		dir := firstNonEmpty(indexFlags.dir, AppConfig.IndexDir)

		idx, err := vecindex.Load(dir)
		if err != nil {
			return err
		}
		set, err := rules.Load(AppConfig.RulesPath, Logger)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
		embedder, cleanup, err := newEmbedder(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		eng := &correlate.Engine{Embedder: embedder, Index: idx, Rules: set, Logger: Logger.Named("correlate")}
		if _, statErr := os.Stat(AppConfig.CatalogPath); statErr == nil {
			c, err := catalog.Open(AppConfig.CatalogPath)
			if err != nil {
				Logger.Warn("catalog unavailable", "error", err)
			} else {
				defer c.Close()
				eng.Records = c
			}
		}

		candidates, err := eng.Correlate(ctx, strings.Join(args, " "), indexFlags.k)
		if err != nil {
			return err
		}
		fmt.Print(wrappers.FormatCandidates(candidates))
		return nil
	},
}

func init() {
	indexCmd.PersistentFlags().StringVar(&indexFlags.dir, "dir", "", "Index directory (default from config)")
	indexBuildCmd.Flags().StringVar(&indexFlags.feed, "feed", "", "Feed JSON to index")
	indexBuildCmd.Flags().StringVar(&indexFlags.source, "source", "records", "What to index: records or rules")
	indexQueryCmd.Flags().IntVarP(&indexFlags.k, "top", "k", 5, "Number of results")
	indexCmd.AddCommand(indexBuildCmd)
	indexCmd.AddCommand(indexQueryCmd)
	rootCmd.AddCommand(indexCmd)
}
