package config

import (
	"context"
	"strings"
	"sync"
	"time"
)

// Settings keys stored in the app_settings table
const (
	KeyFigmaToken   = "figma_access_token"
	KeyFigmaTeamID  = "figma_team_id"
	KeyGroqAPIKey   = "groq_api_key"
	KeyGitHubToken  = "github_token"
	KeyAdminUserIDs = "admin_user_ids"
)

// DefaultSettingsTTL controls how long a settings snapshot stays fresh
const DefaultSettingsTTL = 5 * time.Minute

// SettingsStore is the slice of storage the settings cache reads from
type SettingsStore interface {
	AllSettings(ctx context.Context) (map[string]string, error)
}

// Settings is an immutable snapshot of the runtime settings, merged from the
// app_settings table over the env-derived fallbacks.
type Settings struct {
	FigmaToken   string
	FigmaTeamID  string
	GroqAPIKey   string
	GitHubToken  string
	AdminUserIDs []string
	FetchedAt    time.Time
}

// IsAdmin reports whether userID is in the admin list
func (s *Settings) IsAdmin(userID string) bool {
	for _, id := range s.AdminUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// SettingsCache serves Settings snapshots, refreshing from storage when the
// current snapshot is older than the TTL. Values set in the table win over
// the env fallbacks, which win over empty.
type SettingsCache struct {
	store    SettingsStore
	fallback *Config
	ttl      time.Duration

	mu       sync.Mutex
	snapshot *Settings
}

// NewSettingsCache creates a settings cache backed by store, with cfg
// supplying env fallbacks
func NewSettingsCache(store SettingsStore, cfg *Config) *SettingsCache {
	return &SettingsCache{
		store:    store,
		fallback: cfg,
		ttl:      DefaultSettingsTTL,
	}
}

// Get returns the current settings snapshot, refreshing it when stale. A
// refresh failure falls back to the previous snapshot if one exists.
func (c *SettingsCache) Get(ctx context.Context) (*Settings, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snapshot != nil && time.Since(c.snapshot.FetchedAt) < c.ttl {
		return c.snapshot, nil
	}

	snapshot, err := c.refresh(ctx)
	if err != nil {
		if c.snapshot != nil {
			return c.snapshot, nil
		}
		return nil, err
	}
	c.snapshot = snapshot
	return snapshot, nil
}

// Invalidate forces the next Get to refresh from storage
func (c *SettingsCache) Invalidate() {
	c.mu.Lock()
	c.snapshot = nil
	c.mu.Unlock()
}

func (c *SettingsCache) refresh(ctx context.Context) (*Settings, error) {
	values, err := c.store.AllSettings(ctx)
	if err != nil {
		return nil, err
	}

	pick := func(key, fallback string) string {
		if v, ok := values[key]; ok && v != "" {
			return v
		}
		return fallback
	}

	settings := &Settings{
		FigmaToken:  pick(KeyFigmaToken, c.fallback.FigmaToken),
		FigmaTeamID: pick(KeyFigmaTeamID, c.fallback.FigmaTeamID),
		GroqAPIKey:  pick(KeyGroqAPIKey, c.fallback.GroqAPIKey),
		GitHubToken: pick(KeyGitHubToken, c.fallback.GitHubToken),
		FetchedAt:   time.Now(),
	}

	if raw, ok := values[KeyAdminUserIDs]; ok {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				settings.AdminUserIDs = append(settings.AdminUserIDs, id)
			}
		}
	}

	return settings, nil
}
