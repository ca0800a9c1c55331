// Package storage persists the dashboard's client-side state: the bearer
// credential, the signed-in profile, the theme and the confirmation stamps.
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"
)

// Keys of the persisted state
const (
	KeyAccessToken        = "accessToken"
	KeyUser               = "user"
	KeyThemeMode          = "themeMode"
	KeyBedashConfirmTimes = "bedashConfirmTimes"
)

// Store is a string key-value store. Writes are last-write-wins.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
	Delete(keys ...string) error
}

// MemoryStore keeps state for the lifetime of the process
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

func (m *MemoryStore) Get(key string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *MemoryStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryStore) Delete(keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.data, k)
	}
	return nil
}

// FileStore keeps state in a single JSON object on disk
type FileStore struct {
	mu   sync.Mutex
	path string
	data map[string]string
}

// OpenFileStore loads path, starting empty when the file does not exist yet
func OpenFileStore(path string) (*FileStore, error) {
	fs := &FileStore{path: path, data: make(map[string]string)}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return fs, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading state file: %w", err)
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &fs.data); err != nil {
			return nil, fmt.Errorf("error decoding state file %s: %w", path, err)
		}
	}
	return fs, nil
}

func (f *FileStore) Get(key string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	return v, ok
}

func (f *FileStore) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = value
	return f.flush()
}

func (f *FileStore) Delete(keys ...string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, k := range keys {
		delete(f.data, k)
	}
	return f.flush()
}

// flush rewrites the whole file through a rename so readers never see a torn write
func (f *FileStore) flush() error {
	raw, err := json.MarshalIndent(f.data, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(f.path), 0o700); err != nil {
		return fmt.Errorf("error creating state dir: %w", err)
	}
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("error writing state file: %w", err)
	}
	return os.Rename(tmp, f.path)
}

// ThemeMode is the persisted colour scheme
type ThemeMode string

const (
	ThemeLight ThemeMode = "light"
	ThemeDark  ThemeMode = "dark"
)

// Theme returns the stored theme, light when unset or unknown
func Theme(s Store) ThemeMode {
	if v, _ := s.Get(KeyThemeMode); ThemeMode(v) == ThemeDark {
		return ThemeDark
	}
	return ThemeLight
}

// ToggleTheme flips and persists the theme
func ToggleTheme(s Store) (ThemeMode, error) {
	next := ThemeDark
	if Theme(s) == ThemeDark {
		next = ThemeLight
	}
	return next, s.Set(KeyThemeMode, string(next))
}

// ConfirmTimes reads the record id to confirmation time map. Entries that
// do not parse are skipped.
func ConfirmTimes(s Store) map[int64]time.Time {
	times := make(map[int64]time.Time)
	raw, ok := s.Get(KeyBedashConfirmTimes)
	if !ok || raw == "" {
		return times
	}
	var stamps map[string]int64
	if err := json.Unmarshal([]byte(raw), &stamps); err != nil {
		return times
	}
	for k, ms := range stamps {
		id, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			continue
		}
		times[id] = time.UnixMilli(ms)
	}
	return times
}

// StampConfirmed records that id was confirmed at
func StampConfirmed(s Store, id int64, at time.Time) error {
	times := ConfirmTimes(s)
	times[id] = at
	stamps := make(map[string]int64, len(times))
	for k, t := range times {
		stamps[strconv.FormatInt(k, 10)] = t.UnixMilli()
	}
	raw, err := json.Marshal(stamps)
	if err != nil {
		return err
	}
	return s.Set(KeyBedashConfirmTimes, string(raw))
}
