// Package extract maps normalized feed pages to records.
//
// Two strategies implement Strategy: PostStrategy for the content feed and
// VideoStrategy for the video grid. Both share SplitText, which separates an
// entry's own text from the text it quotes. DetailFetcher enriches a video
// from its permalink page and can be used on its own for ids collected
// earlier.
//
// Malformed metadata attributes and failed secondary fetches never drop a
// record: they are logged and the affected fields are left empty.
package extract
