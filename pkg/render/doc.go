// Package render loads pages in a headless browser. Video permalinks
// sometimes return a placeholder that only fills in client-side; the detail
// fetcher renders those once before giving up.
package render
