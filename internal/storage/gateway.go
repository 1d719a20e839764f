// Package storage is the persistence gateway: typed access to the three
// durable records (session log, aggregate stats, settings) over a KV backend.
// Loads never fail outward; they fall back to defaults and log why.
package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/balkashynov/fencer/internal/models"
)

// Record keys
const (
	KeySessions = "fencer:sessions"
	KeyStats    = "fencer:stats"
	KeySettings = "fencer:settings"
)

// backupSuffix is appended to a key to keep an unreadable value around
// before it gets overwritten
const backupSuffix = ".bak"

// Gateway reads and writes the app's records. Writes are serialized, so
// AppendSession and UpdateSettings are atomic with respect to each other.
type Gateway struct {
	kv  KV
	log *log.Logger
	mu  sync.Mutex
}

// NewGateway wraps kv. A nil logger discards output.
func NewGateway(kv KV, logger *log.Logger) *Gateway {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Gateway{kv: kv, log: logger}
}

// LoadSessions returns the session log, oldest first
func (g *Gateway) LoadSessions(ctx context.Context) []models.Session {
	sessions := []models.Session{}
	if !g.load(ctx, KeySessions, &sessions) {
		return []models.Session{}
	}
	return sessions
}

// SaveSessions replaces the whole session log
func (g *Gateway) SaveSessions(ctx context.Context, sessions []models.Session) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.save(ctx, KeySessions, sessions)
}

// AppendSession adds one finished session to the end of the log
func (g *Gateway) AppendSession(ctx context.Context, session models.Session) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	sessions := g.LoadSessions(ctx)
	sessions = append(sessions, session)
	return g.save(ctx, KeySessions, sessions)
}

// ClearSessions drops the session log
func (g *Gateway) ClearSessions(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.kv.Delete(ctx, KeySessions); err != nil {
		g.log.Error("failed to clear record", "record", KeySessions, "err", err)
		return &PersistenceError{Op: "clear", Record: KeySessions, Err: err}
	}
	return nil
}

// LoadStats returns the aggregate stats, all-zero when none are stored
func (g *Gateway) LoadStats(ctx context.Context) models.UserStats {
	var stats models.UserStats
	if !g.load(ctx, KeyStats, &stats) {
		return models.UserStats{}
	}
	if !statsConsistent(stats) {
		g.log.Warn("stored stats are inconsistent, using defaults", "record", KeyStats)
		g.backup(ctx, KeyStats)
		return models.UserStats{}
	}
	return stats
}

// SaveStats replaces the aggregate stats
func (g *Gateway) SaveStats(ctx context.Context, stats models.UserStats) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.save(ctx, KeyStats, stats)
}

// LoadSettings returns the stored settings. Fields missing from the stored
// value keep their defaults and invalid ones are reset to them.
func (g *Gateway) LoadSettings(ctx context.Context) models.AppSettings {
	settings := models.DefaultSettings()
	if !g.load(ctx, KeySettings, &settings) {
		return models.DefaultSettings()
	}
	return g.sanitizeSettings(settings)
}

// SaveSettings replaces the settings record
func (g *Gateway) SaveSettings(ctx context.Context, settings models.AppSettings) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.save(ctx, KeySettings, settings)
}

// UpdateSettings merges patch into the stored settings and saves the result.
// An invalid merge is rejected before anything is written.
func (g *Gateway) UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.AppSettings, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	current := g.LoadSettings(ctx)
	updated := patch.Apply(current)
	if err := updated.Validate(); err != nil {
		return current, fmt.Errorf("invalid settings: %w", err)
	}
	if err := g.save(ctx, KeySettings, updated); err != nil {
		return updated, err
	}
	return updated, nil
}

// ClearAll wipes every record
func (g *Gateway) ClearAll(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if err := g.kv.Clear(ctx); err != nil {
		g.log.Error("failed to clear store", "err", err)
		return &PersistenceError{Op: "clear", Record: "*", Err: err}
	}
	return nil
}

// load decodes key into dst. It reports false when the caller should use
// defaults instead.
func (g *Gateway) load(ctx context.Context, key string, dst any) bool {
	data, err := g.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			g.log.Warn("failed to read record, using defaults", "record", key, "err", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		g.log.Warn("record is corrupt, using defaults", "record", key, "err", err)
		g.backup(ctx, key)
		return false
	}
	return true
}

func (g *Gateway) save(ctx context.Context, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &PersistenceError{Op: "save", Record: key, Err: err}
	}
	if err := g.kv.Put(ctx, key, data); err != nil {
		g.log.Error("failed to save record", "record", key, "err", err)
		return &PersistenceError{Op: "save", Record: key, Err: err}
	}
	g.log.Debug("saved record", "record", key, "bytes", len(data))
	return nil
}

// backup copies an unreadable value aside so the next save does not lose it
func (g *Gateway) backup(ctx context.Context, key string) {
	data, err := g.kv.Get(ctx, key)
	if err != nil {
		return
	}
	if err := g.kv.Put(ctx, key+backupSuffix, data); err != nil {
		g.log.Warn("failed to back up unreadable record", "record", key, "err", err)
	}
}

func (g *Gateway) sanitizeSettings(s models.AppSettings) models.AppSettings {
	defaults := models.DefaultSettings()
	if _, err := models.ParseTheme(string(s.Theme)); err != nil || (s.Theme == models.ThemeNeon && !s.HasUnlockedNeon) {
		g.log.Warn("stored theme is not usable, resetting", "theme", s.Theme)
		s.Theme = defaults.Theme
	}
	if s.DefaultDuration < models.MinDurationMinutes || s.DefaultDuration > models.MaxDurationMinutes {
		g.log.Warn("stored default duration is out of range, resetting", "minutes", s.DefaultDuration)
		s.DefaultDuration = defaults.DefaultDuration
	}
	s.BlockedApps = models.NormalizeApps(s.BlockedApps)
	return s
}

func statsConsistent(s models.UserStats) bool {
	return s.TotalSessions >= 0 && s.CompletedSessions >= 0 && s.TotalMinutes >= 0 &&
		s.CurrentStreak >= 0 && s.CompletedSessions <= s.TotalSessions &&
		s.CurrentStreak <= s.BestStreak
}
