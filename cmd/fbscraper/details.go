package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"iter"
	"os"
	"strings"

	"fbscraper/pkg/extract"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

var (
	refsFile      string
	detailWorkers int
)

var detailsCmd = &cobra.Command{
	Use:   "details [page_id:video_id...]",
	Short: "Fetch publish time and text for known videos",
	Long: `Fetch the permalink page of each given video and emit its publish time
and text. Videos are given as page_id:video_id arguments, or read with --from
from a file holding one pair per line. Lines may also be JSON records as
written by 'fbscraper videos --no-details'. Use --from - to read stdin.

Records are written in the order the videos were given, even with several
workers.`,
	Example: `  fbscraper details 119240841493711:2834201366806436
  fbscraper videos nintendo --no-details | fbscraper details --from - --workers 3`,
	RunE: runDetails,
}

func init() {
	rootCmd.AddCommand(detailsCmd)
	detailsCmd.Flags().StringVar(&refsFile, "from", "", "read videos from this file (- for stdin)")
	detailsCmd.Flags().IntVar(&detailWorkers, "workers", 1, "concurrent detail fetches (1-10)")
}

func runDetails(cmd *cobra.Command, args []string) error {
	refs, err := parseRefArgs(args)
	if err != nil {
		return err
	}

	if refsFile != "" {
		fromFile, err := readRefsFile(refsFile)
		if err != nil {
			return err
		}
		refs = append(refs, fromFile...)
	}
	if len(refs) == 0 {
		return fmt.Errorf("no videos given: pass page_id:video_id arguments or --from")
	}

	extra := map[string]interface{}{}
	if cmd.Flags().Changed("workers") {
		extra["workers"] = detailWorkers
	}

	a, err := newApp(cmd, extra)
	if err != nil {
		return err
	}

	target := fmt.Sprintf("%d videos", len(refs))
	return run(a, "details", target, func(ctx context.Context) iter.Seq2[extract.VideoRecord, error] {
		return a.scraper.ExtractVideoDetails(ctx, refs)
	})
}

func parseRefArgs(args []string) ([]extract.VideoRef, error) {
	refs := make([]extract.VideoRef, 0, len(args))
	for _, arg := range args {
		ref, err := parseRef(arg)
		if err != nil {
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, nil
}

// parseRef accepts "page_id:video_id" or a JSON object with page_id and
// video_id fields
func parseRef(s string) (extract.VideoRef, error) {
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "{") {
		var record struct {
			PageID  string `json:"page_id"`
			VideoID string `json:"video_id"`
		}
		if err := json.Unmarshal([]byte(s), &record); err != nil {
			return extract.VideoRef{}, fmt.Errorf("invalid video record %q: %w", s, err)
		}
		if record.PageID == "" || record.VideoID == "" {
			return extract.VideoRef{}, fmt.Errorf("video record %q lacks page_id or video_id", s)
		}
		return extract.VideoRef{PageID: record.PageID, VideoID: record.VideoID}, nil
	}

	pageID, videoID, ok := strings.Cut(s, ":")
	pageID, videoID = strings.TrimSpace(pageID), strings.TrimSpace(videoID)
	if !ok || pageID == "" || videoID == "" {
		return extract.VideoRef{}, fmt.Errorf("invalid video %q: expected page_id:video_id", s)
	}
	return extract.VideoRef{PageID: pageID, VideoID: videoID}, nil
}

func readRefsFile(path string) ([]extract.VideoRef, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open %s: %w", path, err)
		}
		defer f.Close()
		r = f
	}
	return readRefs(r)
}

// readRefs parses one video per line, skipping blank lines and # comments
func readRefs(r io.Reader) ([]extract.VideoRef, error) {
	var refs []extract.VideoRef
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ref, err := parseRef(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		refs = append(refs, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read videos: %w", err)
	}
	return refs, nil
}
