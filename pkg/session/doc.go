// Package session stores the optional m.facebook.com cookie string sent with
// every request. Sessions are kept per profile in the system keychain, with an
// encrypted file and the FBSCRAPER_COOKIE environment variable as fallbacks.
package session
