// Package scraper wires the feed paginator to the post and video extraction
// strategies.
//
// Each operation returns a lazy sequence. Nothing is fetched until the caller
// ranges over it, pages are fetched one at a time, and breaking out of the
// loop stops all further requests:
//
//	client := connector.NewFromConfig(cfg, log, nil)
//	s := scraper.New(client, scraper.Options{Delay: time.Second})
//
//	for post, err := range s.ExtractPosts(ctx, "nintendo") {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(post.PostID, post.Text)
//	}
//
// ExtractVideos optionally enriches each video from its permalink page.
// ExtractVideoDetails performs the same enrichment for ids collected earlier
// and may spread the work over several workers; results still arrive in the
// order the ids were given.
//
// The Delay option pauses after every yielded record. With several detail
// workers it instead bounds how often a detail fetch may start.
package scraper
