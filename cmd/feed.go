package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"

	"github.com/user/vulnscan-adk/pkg/feed"
	"github.com/user/vulnscan-adk/pkg/httpclient"
)

var feedFlags struct {
	url       string
	sha256URL string
	out       string
	noVerify  bool
}

var updateFeedCmd = &cobra.Command{
	Use:   "update-feed",
	Short: "Download the NVD feed, verify its checksum and store the JSON locally",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		url := firstNonEmpty(feedFlags.url, AppConfig.FeedURL)
		out := firstNonEmpty(feedFlags.out, AppConfig.FeedPath)
		sha := ""
		if !feedFlags.noVerify {
			sha = firstNonEmpty(feedFlags.sha256URL, AppConfig.FeedSHA256URL, metaURL(url))
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fetcher := feed.NewFetcher(httpclient.New(Logger.Named("http")), Logger.Named("feed"))
		records, err := fetcher.Fetch(ctx, url, sha, out)
		if err != nil {
			return err
		}
		fmt.Printf("[+] Ready: %s (%d records)\n", out, len(records))
		return nil
	},
}

// metaURL derives the NVD ".meta" checksum URL from a feed URL.
func metaURL(feedURL string) string {
	if strings.HasSuffix(feedURL, ".json.gz") {
		return strings.TrimSuffix(feedURL, ".json.gz") + ".meta"
	}
	return ""
}

func init() {
	updateFeedCmd.Flags().StringVar(&feedFlags.url, "url", "", "Feed URL (default NVD 2.0 recent feed)")
	updateFeedCmd.Flags().StringVar(&feedFlags.sha256URL, "sha256-url", "", "Checksum URL (default: the feed's .meta file)")
	updateFeedCmd.Flags().StringVarP(&feedFlags.out, "out", "o", "", "Where to write the feed JSON")
	updateFeedCmd.Flags().BoolVar(&feedFlags.noVerify, "no-verify", false, "Skip checksum verification")
	rootCmd.AddCommand(updateFeedCmd)
}
