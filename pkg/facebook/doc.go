// Package facebook holds the URL layout and the markup pattern table of the
// mobile site.
package facebook
