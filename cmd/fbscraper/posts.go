package main

import (
	"context"
	"iter"
	"strings"

	"fbscraper/pkg/extract"

	"github.com/spf13/cobra"
)

var postsCmd = &cobra.Command{
	Use:   "posts <slug>",
	Short: "Extract every post of a page",
	Long: `Extract every post of a page feed, following pagination to the end.

Each record carries the post id and its text, split into the page's own text
and the text of any reshared post.`,
	Example: `  # All posts of a page
  fbscraper posts nintendo

  # First three feed pages, one second between records
  fbscraper posts nintendo --max-pages 3 --delay 1`,
	Args: cobra.ExactArgs(1),
	RunE: runPosts,
}

func init() {
	rootCmd.AddCommand(postsCmd)
}

func runPosts(cmd *cobra.Command, args []string) error {
	slug := strings.TrimSpace(args[0])

	a, err := newApp(cmd, nil)
	if err != nil {
		return err
	}

	return run(a, "posts", slug, func(ctx context.Context) iter.Seq2[extract.PostRecord, error] {
		return a.scraper.ExtractPosts(ctx, slug)
	})
}
