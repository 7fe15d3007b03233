package session

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/wricardo/mcp-training/rpsrelay/game/engine"
)

var (
	ErrSessionNotFound    = errors.New("session not found")
	ErrCodeSpaceExhausted = errors.New("code space exhausted")
)

// entry guards one game; mu is held from lookup through broadcast
type entry struct {
	mu        sync.Mutex
	game      *engine.Game
	createdAt time.Time
	deleted   bool
}

// Manager is the registry of live games.
// Lock order is entry.mu before Manager.mu; Manager.mu is never held while
// waiting on an entry.
type Manager struct {
	sessions        map[string]*entry
	random          io.Reader
	maxCodeAttempts int
	mu              sync.RWMutex
}

// Option configures a Manager
type Option func(*Manager)

// WithRandom sets the randomness source used for codes
func WithRandom(r io.Reader) Option {
	return func(m *Manager) {
		m.random = r
	}
}

// WithMaxCodeAttempts caps code collision retries
func WithMaxCodeAttempts(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.maxCodeAttempts = n
		}
	}
}

// NewManager creates a new session manager
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		sessions:        make(map[string]*entry),
		random:          defaultRandom,
		maxCodeAttempts: DefaultMaxCodeAttempts,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create allocates a fresh code and seats connID in slot 1.
// fn runs under the new game's lock before any other caller can reach it.
func (m *Manager) Create(connID, name string, fn func(*engine.Game) error) (*engine.GameState, error) {
	for attempt := 0; attempt < m.maxCodeAttempts; attempt++ {
		code, err := generateCode(m.random)
		if err != nil {
			return nil, err
		}

		e := &entry{
			game:      engine.NewGame(code, connID, name),
			createdAt: time.Now(),
		}
		e.mu.Lock()

		m.mu.Lock()
		if _, exists := m.sessions[code]; exists {
			m.mu.Unlock()
			e.mu.Unlock()
			continue
		}
		m.sessions[code] = e
		m.mu.Unlock()

		var fnErr error
		if fn != nil {
			fnErr = fn(e.game)
		}
		state := e.game.State()
		e.mu.Unlock()

		return state, fnErr
	}

	return nil, fmt.Errorf("%w after %d attempts", ErrCodeSpaceExhausted, m.maxCodeAttempts)
}

// With runs fn while holding the lock of the game addressed by code
func (m *Manager) With(code string, fn func(*engine.Game) error) error {
	e := m.lookup(code)
	if e == nil {
		return ErrSessionNotFound
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.deleted {
		return ErrSessionNotFound
	}
	return fn(e.game)
}

// Delete removes the game addressed by code. fn runs under the game's lock
// after it has left the registry. Returns false when nothing was deleted.
func (m *Manager) Delete(code string, fn func(*engine.GameState)) bool {
	e := m.lookup(code)
	if e == nil {
		return false
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return m.deleteLocked(e, fn)
}

// DeleteByConnection removes every game whose slots hold connID and
// returns the deleted codes
func (m *Manager) DeleteByConnection(connID string, fn func(*engine.GameState)) []string {
	var deleted []string

	for _, e := range m.entries() {
		e.mu.Lock()
		if !e.deleted && e.game.HasConnection(connID) {
			code := e.game.ID()
			if m.deleteLocked(e, fn) {
				deleted = append(deleted, code)
			}
		}
		e.mu.Unlock()
	}

	return deleted
}

// Get returns a snapshot of one game
func (m *Manager) Get(code string) (*engine.GameState, error) {
	var state *engine.GameState
	err := m.With(code, func(g *engine.Game) error {
		state = g.State()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return state, nil
}

// List returns snapshots of all live games, oldest first
func (m *Manager) List() []*engine.GameState {
	entries := m.entries()
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].createdAt.Before(entries[j].createdAt)
	})

	result := make([]*engine.GameState, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			result = append(result, e.game.State())
		}
		e.mu.Unlock()
	}
	return result
}

// Count returns the number of live games
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// deleteLocked must be called with e.mu held
func (m *Manager) deleteLocked(e *entry, fn func(*engine.GameState)) bool {
	if e.deleted {
		return false
	}

	m.mu.Lock()
	code := e.game.ID()
	if current, ok := m.sessions[code]; ok && current == e {
		delete(m.sessions, code)
	}
	m.mu.Unlock()

	e.deleted = true
	e.game.Terminate()

	if fn != nil {
		fn(e.game.State())
	}
	return true
}

func (m *Manager) lookup(code string) *entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[NormalizeCode(code)]
}

func (m *Manager) entries() []*entry {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*entry, 0, len(m.sessions))
	for _, e := range m.sessions {
		result = append(result, e)
	}
	return result
}
