// Package ui prints status and progress for the command line tool on stderr.
package ui
