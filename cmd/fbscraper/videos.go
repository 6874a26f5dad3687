package main

import (
	"context"
	"iter"
	"strings"

	"fbscraper/pkg/extract"

	"github.com/spf13/cobra"
)

var noDetails bool

var videosCmd = &cobra.Command{
	Use:   "videos <slug>",
	Short: "Extract every video of a page's video grid",
	Long: `Extract every inline video of a page's video grid.

By default each video's permalink page is fetched as well to add its publish
time and text. With --no-details only the grid is read, which needs a single
request per grid page. The ids can be enriched later with 'fbscraper details'.`,
	Example: `  # Videos with details
  fbscraper videos nintendo

  # Ids only, enriched later with four workers
  fbscraper videos nintendo --no-details > ids.jsonl
  fbscraper details --from ids.jsonl --workers 4`,
	Args: cobra.ExactArgs(1),
	RunE: runVideos,
}

func init() {
	rootCmd.AddCommand(videosCmd)
	videosCmd.Flags().BoolVar(&noDetails, "no-details", false, "skip permalink pages and emit ids only")
}

func runVideos(cmd *cobra.Command, args []string) error {
	slug := strings.TrimSpace(args[0])

	extra := map[string]interface{}{}
	if cmd.Flags().Changed("no-details") {
		extra["include-details"] = !noDetails
	}

	a, err := newApp(cmd, extra)
	if err != nil {
		return err
	}

	wantDetails := a.cfg.Scrape.IncludeDetails
	return run(a, "videos", slug, func(ctx context.Context) iter.Seq2[extract.VideoRecord, error] {
		return a.scraper.ExtractVideos(ctx, slug, wantDetails)
	})
}
