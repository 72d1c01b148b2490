package settings

import "sync"

// Manager tracks the settings file for a running process.
//
// It keeps two views: the settings captured when the process started, and the
// current settings, which follow saves and external edits of the file.
type Manager struct {
	path string

	mu      sync.RWMutex
	startup Settings
	current Settings
}

// NewManager loads path and returns a Manager seeded with its contents.
func NewManager(path string) *Manager {
	s := Load(path)
	return &Manager{
		path:    path,
		startup: s,
		current: s,
	}
}

// Path returns the settings file path.
func (m *Manager) Path() string {
	return m.path
}

// Startup returns the settings as they were when the process started.
func (m *Manager) Startup() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.startup
}

// Current returns the most recently saved or loaded settings.
func (m *Manager) Current() Settings {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

// Save persists s and makes it the current settings.
// The current settings are left untouched when the write fails.
func (m *Manager) Save(s Settings) error {
	if err := Save(m.path, s); err != nil {
		return err
	}
	m.mu.Lock()
	m.current = s
	m.mu.Unlock()
	return nil
}

// Reload re-reads the file into the current settings and reports whether
// anything changed.
func (m *Manager) Reload() (Settings, bool) {
	s := Load(m.path)
	m.mu.Lock()
	defer m.mu.Unlock()
	changed := s != m.current
	m.current = s
	return s, changed
}
