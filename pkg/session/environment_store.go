package session

import (
	"os"
	"time"
)

// EnvironmentStore reads a read-only session from FBSCRAPER_COOKIE
type EnvironmentStore struct{}

func NewEnvironmentStore() *EnvironmentStore {
	return &EnvironmentStore{}
}

// Store is not supported for environment variables
func (e *EnvironmentStore) Store(s *Session) error {
	return ErrStoreUnavailable
}

// Retrieve answers for any profile, since the environment holds only one
func (e *EnvironmentStore) Retrieve(profile string) (*Session, error) {
	cookie := os.Getenv("FBSCRAPER_COOKIE")
	if cookie == "" {
		return nil, ErrSessionNotFound
	}
	if profile == "" {
		profile = DefaultProfile
	}

	return &Session{
		Profile:      profile,
		Cookie:       NormalizeCookie(cookie),
		UserAgent:    os.Getenv("FBSCRAPER_USER_AGENT"),
		LastModified: time.Now(),
	}, nil
}

func (e *EnvironmentStore) List() ([]*Session, error) {
	s, err := e.Retrieve("")
	if err != nil {
		return []*Session{}, nil
	}
	return []*Session{s}, nil
}

// Delete is not supported for environment variables
func (e *EnvironmentStore) Delete(profile string) error {
	return ErrStoreUnavailable
}

func (e *EnvironmentStore) Exists(profile string) bool {
	return os.Getenv("FBSCRAPER_COOKIE") != ""
}
