package server

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/chrissnell/startracker/internal/graph"
	"github.com/chrissnell/startracker/pkg/sky"
)

var (
	errSessionNotFound  = errors.New("graph not found")
	errTooManySessions  = errors.New("too many graphs; try again later")
	errInvalidArgument  = errors.New("invalid argument")
	errObjectIdentifier = errors.New("an identifier or ra/dec is required")
	errLocationNotFound = errors.New("location not found")
)

// Session is one browser's graph. All access to its controller goes through
// the session mutex. A closed session has been removed from the registry and
// must not be touched again.
type Session struct {
	ID string

	mu           sync.Mutex
	ctrl         *graph.Controller
	locationName string
	utcOffset    int
	created      time.Time
	lastUsed     time.Time
	closed       bool
}

func (s *Session) zone() *time.Location {
	return sky.Zone(s.utcOffset)
}

// Sessions is the registry of live graph sessions.
type Sessions struct {
	mu   sync.RWMutex
	byID map[string]*Session
	max  int
}

func NewSessions(max int) *Sessions {
	return &Sessions{byID: make(map[string]*Session), max: max}
}

func (s *Sessions) Add(sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.max > 0 && len(s.byID) >= s.max {
		return errTooManySessions
	}
	s.byID[sess.ID] = sess
	return nil
}

func (s *Sessions) Get(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, errSessionNotFound
	}
	return sess, nil
}

func (s *Sessions) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byID[id]
	delete(s.byID, id)
	return ok
}

func (s *Sessions) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// All returns a snapshot of the live sessions ordered by ID.
func (s *Sessions) All() []*Session {
	s.mu.RLock()
	all := make([]*Session, 0, len(s.byID))
	for _, sess := range s.byID {
		all = append(all, sess)
	}
	s.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return all
}
