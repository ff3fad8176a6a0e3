package session

import (
	"errors"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"careerqa/internal/index"
	"careerqa/internal/retrieval"
)

const (
	DefaultTimeout = 600 * time.Second
	shardCount     = 32
)

var ErrUnknownSession = errors.New("unknown session")

// Meta describes the document a session was built from.
type Meta struct {
	FileName       string
	DocumentDigest string
	Documents      int
}

// Session binds one uploaded document's index to its retrieval handle.
// Index and Retriever are set together at creation and never change.
type Session struct {
	ID        string
	Index     *index.Index
	Retriever *retrieval.Retriever
	Meta      Meta
	CreatedAt time.Time

	lastUsed atomic.Int64 // unix nanoseconds
}

// LastUsed returns the time of the most recent create or touch.
func (s *Session) LastUsed() time.Time {
	return time.Unix(0, s.lastUsed.Load())
}

// touch moves lastUsed forward to now; it never moves it back.
func (s *Session) touch(now time.Time) {
	n := now.UnixNano()
	for {
		cur := s.lastUsed.Load()
		if n <= cur || s.lastUsed.CompareAndSwap(cur, n) {
			return
		}
	}
}

type shard struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// Store holds live sessions in memory. Operations on different ids lock
// different shards; touches only take a read lock.
type Store struct {
	shards [shardCount]*shard
	now    func() time.Time
	count  atomic.Int64
}

type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func NewStore(opts ...Option) *Store {
	s := &Store{now: time.Now}
	for i := range s.shards {
		s.shards[i] = &shard{sessions: make(map[string]*Session)}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) shardFor(id string) *shard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	return s.shards[h.Sum32()%shardCount]
}

// Create stores a new session and returns its random id.
func (s *Store) Create(ix *index.Index, retriever *retrieval.Retriever, meta Meta) (string, error) {
	if ix == nil || retriever == nil {
		return "", errors.New("session requires both an index and a retriever")
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	now := s.now()
	sess := &Session{
		ID:        id.String(),
		Index:     ix,
		Retriever: retriever,
		Meta:      meta,
		CreatedAt: now,
	}
	sess.lastUsed.Store(now.UnixNano())

	sh := s.shardFor(sess.ID)
	sh.mu.Lock()
	sh.sessions[sess.ID] = sess
	sh.mu.Unlock()
	s.count.Add(1)
	return sess.ID, nil
}

func (s *Store) Get(id string) (*Session, error) {
	sh := s.shardFor(id)
	sh.mu.RLock()
	sess, ok := sh.sessions[id]
	sh.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownSession
	}
	return sess, nil
}

// Touch refreshes lastUsed under the shard lock, so a concurrent Sweep either
// sees the new time or removes the session before Touch can find it.
func (s *Store) Touch(id string) error {
	sh := s.shardFor(id)
	sh.mu.RLock()
	defer sh.mu.RUnlock()
	sess, ok := sh.sessions[id]
	if !ok {
		return ErrUnknownSession
	}
	sess.touch(s.now())
	return nil
}

// Sweep removes sessions idle for longer than timeout at now and closes
// their indexes. It returns the removed ids.
func (s *Store) Sweep(now time.Time, timeout time.Duration) []string {
	return s.remove(func(sess *Session) bool {
		return now.Sub(sess.LastUsed()) > timeout
	})
}

// Close removes every session and closes its index.
func (s *Store) Close() int {
	return len(s.remove(func(*Session) bool { return true }))
}

func (s *Store) remove(match func(*Session) bool) []string {
	var (
		removed []string
		expired []*Session
	)
	for _, sh := range s.shards {
		sh.mu.Lock()
		for id, sess := range sh.sessions {
			if match(sess) {
				delete(sh.sessions, id)
				removed = append(removed, id)
				expired = append(expired, sess)
			}
		}
		sh.mu.Unlock()
	}
	s.count.Add(-int64(len(removed)))

	for _, sess := range expired {
		_ = sess.Index.Close()
	}
	return removed
}

// Now is the store's clock.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) Len() int {
	return int(s.count.Load())
}
