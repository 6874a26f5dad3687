package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"
)

// DefaultProfile is used when no profile name is given
const DefaultProfile = "default"

// Session is a stored m.facebook.com cookie string for one profile
type Session struct {
	Profile      string    `json:"profile"`
	Cookie       string    `json:"cookie"`
	UserAgent    string    `json:"user_agent,omitempty"`
	LastModified time.Time `json:"last_modified"`
}

// Store persists sessions keyed by profile name
type Store interface {
	Store(s *Session) error
	Retrieve(profile string) (*Session, error)
	List() ([]*Session, error)
	Delete(profile string) error
	Exists(profile string) bool
}

// Manager tries each backing store in order
type Manager struct {
	stores []Store
}

// NewManager builds the keyring, encrypted file and environment chain
func NewManager() (*Manager, error) {
	var stores []Store

	if keyringStore, err := NewKeyringStore(); err == nil {
		stores = append(stores, keyringStore)
	}

	configDir, err := ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config directory: %w", err)
	}

	encryptedStore, err := NewEncryptedFileStore(filepath.Join(configDir, "sessions.enc"))
	if err != nil {
		return nil, fmt.Errorf("failed to create encrypted store: %w", err)
	}
	stores = append(stores, encryptedStore, NewEnvironmentStore())

	return &Manager{stores: stores}, nil
}

// NewManagerWithStores creates a Manager over explicit stores
func NewManagerWithStores(stores ...Store) *Manager {
	return &Manager{stores: stores}
}

// Set saves the session in the first store that accepts it
func (m *Manager) Set(s *Session) error {
	if s == nil || strings.TrimSpace(s.Cookie) == "" {
		return ErrInvalidSession
	}
	if s.Profile == "" {
		s.Profile = DefaultProfile
	}
	s.Cookie = NormalizeCookie(s.Cookie)
	s.LastModified = time.Now()

	var lastErr error
	for _, store := range m.stores {
		err := store.Store(s)
		if err == nil {
			return nil
		}
		lastErr = err
	}

	if lastErr != nil {
		return fmt.Errorf("failed to store session: %w", lastErr)
	}
	return errors.New("no available session stores")
}

// Get returns the session for profile from the first store holding it
func (m *Manager) Get(profile string) (*Session, error) {
	if profile == "" {
		profile = DefaultProfile
	}
	for _, store := range m.stores {
		if s, err := store.Retrieve(profile); err == nil && s != nil {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, profile)
}

// Cookie returns the stored cookie for profile, or "" when none exists
func (m *Manager) Cookie(profile string) string {
	s, err := m.Get(profile)
	if err != nil {
		return ""
	}
	return s.Cookie
}

// List merges sessions from every store, keeping the newest per profile
func (m *Manager) List() ([]*Session, error) {
	byProfile := make(map[string]*Session)

	for _, store := range m.stores {
		sessions, err := store.List()
		if err != nil {
			continue
		}
		for _, s := range sessions {
			if existing, ok := byProfile[s.Profile]; !ok || s.LastModified.After(existing.LastModified) {
				byProfile[s.Profile] = s
			}
		}
	}

	result := make([]*Session, 0, len(byProfile))
	for _, s := range byProfile {
		result = append(result, s)
	}
	return result, nil
}

// Delete removes profile from every store that holds it
func (m *Manager) Delete(profile string) error {
	if profile == "" {
		profile = DefaultProfile
	}

	var deleted bool
	var lastErr error
	for _, store := range m.stores {
		if err := store.Delete(profile); err == nil {
			deleted = true
		} else {
			lastErr = err
		}
	}

	if deleted {
		return nil
	}
	if lastErr != nil && !errors.Is(lastErr, ErrSessionNotFound) && !errors.Is(lastErr, ErrStoreUnavailable) {
		return fmt.Errorf("failed to delete session: %w", lastErr)
	}
	return fmt.Errorf("%w: %s", ErrSessionNotFound, profile)
}

// NormalizeCookie trims whitespace and a trailing separator, and drops any
// locale pair since the connector always sends its own.
func NormalizeCookie(raw string) string {
	var parts []string
	for _, part := range strings.Split(raw, ";") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, _, _ := strings.Cut(part, "=")
		if strings.TrimSpace(name) == "locale" {
			continue
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, "; ")
}

// ConfigDir returns the per-user directory holding session files
func ConfigDir() (string, error) {
	var configDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		configDir = filepath.Join(home, "Library", "Application Support", "fbscraper")
	case "windows":
		configDir = filepath.Join(os.Getenv("APPDATA"), "fbscraper")
	default:
		if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
			configDir = filepath.Join(xdgConfig, "fbscraper")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			configDir = filepath.Join(home, ".config", "fbscraper")
		}
	}

	if err := os.MkdirAll(configDir, 0700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return configDir, nil
}

// Sanitize returns a copy with cookie values masked
func Sanitize(s *Session) *Session {
	if s == nil {
		return nil
	}

	var masked []string
	for _, part := range strings.Split(s.Cookie, "; ") {
		name, value, ok := strings.Cut(part, "=")
		if !ok {
			masked = append(masked, maskString(part))
			continue
		}
		masked = append(masked, name+"="+maskString(value))
	}

	return &Session{
		Profile:      s.Profile,
		Cookie:       strings.Join(masked, "; "),
		UserAgent:    s.UserAgent,
		LastModified: s.LastModified,
	}
}

// maskString masks all but the first 4 and last 4 characters of a string
func maskString(s string) string {
	if len(s) <= 8 {
		return "********"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrInvalidSession   = errors.New("invalid session")
	ErrStoreUnavailable = errors.New("session store unavailable")
)
