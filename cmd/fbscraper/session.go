package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"fbscraper/pkg/session"
	"fbscraper/pkg/ui"

	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Manage the stored session cookie",
	Long: `Manage the cookie string sent with every request.

Public pages need no session. A stored cookie is only useful for pages that
the mobile site hides from anonymous visitors. Cookies are stored using:
  - System keychain (when available)
  - Encrypted file with PBKDF2 key derivation
  - The FBSCRAPER_COOKIE environment variable (read only)

A cookie set in the configuration file or FBSCRAPER_COOKIE takes precedence.`,
}

var sessionSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Store a cookie string",
	Long: `Store a cookie string for the selected profile. The value is read from
the terminal without echo, or from stdin when it is not a terminal.

Copy the Cookie request header of any m.facebook.com request from your
browser's developer tools.`,
	Example: `  fbscraper session set
  fbscraper session set --profile work
  pbpaste | fbscraper session set`,
	Args: cobra.NoArgs,
	RunE: runSessionSet,
}

var sessionShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show stored sessions with values masked",
	Args:  cobra.NoArgs,
	RunE:  runSessionShow,
}

var sessionClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove the stored cookie of the selected profile",
	Args:  cobra.NoArgs,
	RunE:  runSessionClear,
}

func init() {
	rootCmd.AddCommand(sessionCmd)
	sessionCmd.AddCommand(sessionSetCmd)
	sessionCmd.AddCommand(sessionShowCmd)
	sessionCmd.AddCommand(sessionClearCmd)
}

func runSessionSet(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	fmt.Fprint(os.Stderr, "Cookie header value: ")
	cookie, err := readSecret()
	if err != nil {
		return fmt.Errorf("failed to read cookie: %w", err)
	}

	s := &session.Session{Profile: profileName(), Cookie: cookie}
	if err := manager.Set(s); err != nil {
		return err
	}

	out := ui.NewTerminal(quiet)
	out.PrintSuccess(fmt.Sprintf("Stored session for profile %s", s.Profile))
	out.PrintInfo("Cookie", session.Sanitize(s).Cookie)
	return nil
}

func runSessionShow(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	sessions, err := manager.List()
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		fmt.Println("No stored sessions. Run 'fbscraper session set' to add one.")
		return nil
	}

	for _, s := range sessions {
		masked := session.Sanitize(s)
		fmt.Printf("%s\n  cookie:   %s\n  modified: %s\n",
			ui.Cyan(masked.Profile),
			masked.Cookie,
			masked.LastModified.Format("2006-01-02 15:04:05"),
		)
	}
	return nil
}

func runSessionClear(cmd *cobra.Command, args []string) error {
	manager, err := session.NewManager()
	if err != nil {
		return fmt.Errorf("failed to initialize session store: %w", err)
	}

	if err := manager.Delete(profileName()); err != nil {
		return err
	}
	ui.NewTerminal(quiet).PrintSuccess(fmt.Sprintf("Removed session for profile %s", profileName()))
	return nil
}

// readSecret reads one line without echo when stdin is a terminal
func readSecret() (string, error) {
	fd := int(os.Stdin.Fd())
	if term.IsTerminal(fd) {
		secret, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err == nil {
			return strings.TrimSpace(string(secret)), nil
		}
	}

	reader := bufio.NewReader(os.Stdin)
	input, err := reader.ReadString('\n')
	if err != nil && input == "" {
		return "", err
	}
	return strings.TrimSpace(input), nil
}
