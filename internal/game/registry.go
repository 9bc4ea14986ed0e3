// internal/game/registry.go

package game

import (
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 6
	maxCodeAttempts = 10

	// How long an evicted code keeps answering with room_expired before a
	// late action just sees unknown_room.
	expiredRetention = time.Hour
)

// Registry owns the code -> session directory for the whole process. It is
// constructed once and handed to whatever accepts connections; there is no
// package-level state.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	expired  map[string]time.Time

	defaults    Settings
	idleTimeout time.Duration
	questions   QuestionSource
	broadcaster Broadcaster
	log         *logrus.Entry

	stopOnce sync.Once
	stop     chan struct{}
}

// CreateOptions override the registry defaults per room. Zero values keep
// the default.
type CreateOptions struct {
	MaxTeams     int      `json:"max_teams"`
	Rounds       int      `json:"rounds"`
	Difficulties []string `json:"difficulties"`
}

func NewRegistry(defaults Settings, idleTimeout time.Duration, questions QuestionSource, broadcaster Broadcaster) *Registry {
	return &Registry{
		sessions:    make(map[string]*Session),
		expired:     make(map[string]time.Time),
		defaults:    defaults,
		idleTimeout: idleTimeout,
		questions:   questions,
		broadcaster: broadcaster,
		log:         logrus.WithField("component", "registry"),
	}
}

// CreateRoom allocates an unused code and starts an empty session in the
// lobby phase.
func (r *Registry) CreateRoom(opts CreateOptions) (*Session, error) {
	settings := r.defaults
	if opts.MaxTeams > 0 {
		settings.MaxTeams = opts.MaxTeams
	}
	if opts.Rounds > 0 {
		settings.Rounds = opts.Rounds
	}
	if len(opts.Difficulties) > 0 {
		settings.Difficulties = opts.Difficulties
	}
	if settings.MaxTeams < 2 {
		settings.MaxTeams = 2
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	code := ""
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		candidate := generateRoomCode()
		if _, taken := r.sessions[candidate]; !taken {
			code = candidate
			break
		}
	}
	if code == "" {
		return nil, ErrCapacityExceeded
	}

	session := NewSession(code, settings, r.questions, r.broadcaster, r.Remove)
	r.sessions[code] = session
	delete(r.expired, code)

	r.log.WithFields(logrus.Fields{"room": code, "rooms": len(r.sessions)}).Info("room created")
	return session, nil
}

// Get resolves a room code, case-insensitively.
func (r *Registry) Get(code string) (*Session, error) {
	code = normalizeCode(code)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if session, ok := r.sessions[code]; ok {
		return session, nil
	}
	if _, was := r.expired[code]; was {
		return nil, ErrRoomExpired
	}
	return nil, ErrUnknownRoom
}

// Remove closes a session and drops its code. The code keeps reporting
// room_expired for a while so clients with a stale code get a clear error.
func (r *Registry) Remove(code string) {
	code = normalizeCode(code)

	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[code]
	if !ok {
		return
	}
	session.Close()
	delete(r.sessions, code)
	r.expired[code] = time.Now()
	r.log.WithField("room", code).Info("room removed")
}

// Count returns the number of live rooms.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}

// StartEvictionLoop sweeps idle rooms on a ticker until Stop is called.
func (r *Registry) StartEvictionLoop(interval time.Duration) {
	r.stop = make(chan struct{})
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				r.EvictIdle()
			case <-r.stop:
				return
			}
		}
	}()
	r.log.Info("eviction loop started")
}

// Stop halts the eviction loop.
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		if r.stop != nil {
			close(r.stop)
		}
	})
}

// EvictIdle removes every session that has had zero bound connections for
// longer than the idle window.
func (r *Registry) EvictIdle() {
	now := time.Now()

	r.mu.Lock()
	var idle []string
	for code, session := range r.sessions {
		if d := session.idleFor(now); d > r.idleTimeout {
			idle = append(idle, code)
		}
	}
	for code, at := range r.expired {
		if now.Sub(at) > expiredRetention {
			delete(r.expired, code)
		}
	}
	r.mu.Unlock()

	for _, code := range idle {
		r.log.WithField("room", code).Info("evicting idle room")
		r.Remove(code)
	}
}

func generateRoomCode() string {
	code := make([]byte, codeLength)
	for i := range code {
		code[i] = codeAlphabet[rand.Intn(len(codeAlphabet))]
	}
	return string(code)
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
