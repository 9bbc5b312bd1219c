// Package livestate holds the presentation state pushed to every browser:
// theme, banner and the last rain event.
package livestate

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

type State struct {
	Theme              string `json:"theme"`
	Banner             string `json:"banner,omitempty"`
	RainEventTimestamp int64  `json:"rainEventTimestamp"`
	OnlineUsers        int    `json:"onlineUsers"`
}

// Store guards State. When snapshotPath is set every mutation is written to
// disk and New restores from it.
type Store struct {
	mu           sync.RWMutex
	state        State
	snapshotPath string
	now          func() time.Time
}

func New(defaultTheme, snapshotPath string) (*Store, error) {
	s := &Store{
		state:        State{Theme: defaultTheme},
		snapshotPath: snapshotPath,
		now:          time.Now,
	}
	if snapshotPath == "" {
		return s, nil
	}

	data, err := os.ReadFile(snapshotPath)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read live state: %w", err)
	}
	if err := json.Unmarshal(data, &s.state); err != nil {
		return nil, fmt.Errorf("decode live state: %w", err)
	}
	s.state.OnlineUsers = 0
	return s, nil
}

// Get returns the state with onlineUsers filled in by the caller.
func (s *Store) Get(onlineUsers int) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	st := s.state
	st.OnlineUsers = onlineUsers
	return st
}

func (s *Store) SetTheme(theme string) error {
	return s.update(func(st *State) { st.Theme = theme })
}

// SetBanner sets the broadcast message. An empty message removes it.
func (s *Store) SetBanner(message string) error {
	return s.update(func(st *State) { st.Banner = message })
}

// TriggerRain stamps the current time in milliseconds; clients start the
// effect when they see a newer timestamp.
func (s *Store) TriggerRain() (int64, error) {
	ts := s.now().UnixMilli()
	return ts, s.update(func(st *State) { st.RainEventTimestamp = ts })
}

func (s *Store) update(fn func(*State)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(&s.state)
	return s.persistLocked()
}

func (s *Store) persistLocked() error {
	if s.snapshotPath == "" {
		return nil
	}
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.snapshotPath), 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp := s.snapshotPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write live state: %w", err)
	}
	return os.Rename(tmp, s.snapshotPath)
}
