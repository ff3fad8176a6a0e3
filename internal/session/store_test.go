package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"careerqa/internal/index"
	"careerqa/internal/ingest"
	"careerqa/internal/retrieval"
)

type constEmbedder struct{}

func (constEmbedder) EmbedDocuments(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{1}
	}
	return out, nil
}

func (constEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{1}, nil
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newIndex(t *testing.T) (*index.Index, *retrieval.Retriever) {
	t.Helper()
	ix, _, err := index.NewBuilder(index.Static(constEmbedder{}), nil).
		Build(context.Background(), []ingest.Chunk{{Text: "Go developer"}})
	if err != nil {
		t.Fatalf("build index: %v", err)
	}
	return ix, retrieval.New(ix, nil, 1)
}

func TestCreateGet(t *testing.T) {
	s := NewStore()
	ix, r := newIndex(t)
	id, err := s.Create(ix, r, Meta{FileName: "cv.txt", Documents: 1})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sess, err := s.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess.Index != ix || sess.Retriever != r || sess.Meta.FileName != "cv.txt" {
		t.Fatalf("unexpected session %+v", sess)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 session, got %d", s.Len())
	}
}

func TestCreateRequiresIndexAndRetriever(t *testing.T) {
	ix, _ := newIndex(t)
	if _, err := NewStore().Create(ix, nil, Meta{}); err == nil {
		t.Fatal("expected error without retriever")
	}
}

func TestIDsAreUniqueAndOpaque(t *testing.T) {
	s := NewStore()
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		ix, r := newIndex(t)
		id, err := s.Create(ix, r, Meta{})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[id] || len(id) != 36 {
			t.Fatalf("bad id %q", id)
		}
		seen[id] = true
	}
}

func TestUnknownSession(t *testing.T) {
	s := NewStore()
	if _, err := s.Get("abc"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
	if err := s.Touch("abc"); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected ErrUnknownSession, got %v", err)
	}
}

func TestSweepExpiresIdleSessions(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	s := NewStore(WithClock(c.Now))
	ix, r := newIndex(t)
	idle, _ := s.Create(ix, r, Meta{})
	ix2, r2 := newIndex(t)
	active, _ := s.Create(ix2, r2, Meta{})

	c.Advance(400 * time.Second)
	if err := s.Touch(active); err != nil {
		t.Fatalf("touch: %v", err)
	}

	// exactly at the timeout nothing expires
	c.Advance(200 * time.Second)
	if removed := s.Sweep(c.Now(), DefaultTimeout); len(removed) != 0 {
		t.Fatalf("expected nothing removed at the boundary, got %v", removed)
	}

	c.Advance(time.Second)
	removed := s.Sweep(c.Now(), DefaultTimeout)
	if len(removed) != 1 || removed[0] != idle {
		t.Fatalf("expected only the idle session removed, got %v", removed)
	}
	if _, err := s.Get(idle); !errors.Is(err, ErrUnknownSession) {
		t.Fatalf("expected idle session gone, got %v", err)
	}
	if _, err := ix.Search(context.Background(), "go", 1); !errors.Is(err, index.ErrIndexClosed) {
		t.Fatalf("expected swept index to be closed, got %v", err)
	}
	if _, err := s.Get(active); err != nil {
		t.Fatalf("active session should survive: %v", err)
	}
	if s.Len() != 1 {
		t.Fatalf("expected 1 live session, got %d", s.Len())
	}
}

func TestTouchNeverMovesBackwards(t *testing.T) {
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	s := NewStore(WithClock(c.Now))
	ix, r := newIndex(t)
	id, _ := s.Create(ix, r, Meta{})
	sess, _ := s.Get(id)

	c.Advance(time.Minute)
	_ = s.Touch(id)
	later := sess.LastUsed()

	sess.touch(later.Add(-30 * time.Second))
	if !sess.LastUsed().Equal(later) {
		t.Fatalf("lastUsed moved backwards: %v -> %v", later, sess.LastUsed())
	}
}

func TestConcurrentAccess(t *testing.T) {
	s := NewStore()
	ids := make([]string, 8)
	for i := range ids {
		ix, r := newIndex(t)
		ids[i], _ = s.Create(ix, r, Meta{})
	}

	var wg sync.WaitGroup
	for w := 0; w < 16; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				id := ids[(w+i)%len(ids)]
				prev := time.Time{}
				if sess, err := s.Get(id); err == nil {
					prev = sess.LastUsed()
				}
				if err := s.Touch(id); err != nil {
					t.Errorf("touch: %v", err)
					return
				}
				sess, _ := s.Get(id)
				if sess.LastUsed().Before(prev) {
					t.Errorf("lastUsed decreased for %s", id)
					return
				}
				if i%50 == 0 {
					s.Sweep(time.Now(), time.Hour)
				}
			}
		}(w)
	}
	wg.Wait()
	if s.Len() != len(ids) {
		t.Fatalf("expected %d sessions, got %d", len(ids), s.Len())
	}
}

func TestTouchAndSweepDoNotInterleave(t *testing.T) {
	for i := 0; i < 200; i++ {
		c := &clock{now: time.Unix(1_700_000_000, 0)}
		s := NewStore(WithClock(c.Now))
		ix, r := newIndex(t)
		id, _ := s.Create(ix, r, Meta{})
		c.Advance(time.Hour)

		var (
			wg       sync.WaitGroup
			touchErr error
			removed  []string
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			touchErr = s.Touch(id)
		}()
		go func() {
			defer wg.Done()
			removed = s.Sweep(c.Now(), 0)
		}()
		wg.Wait()

		if touchErr == nil && len(removed) != 0 {
			t.Fatalf("iteration %d: touch succeeded on a session the sweep removed", i)
		}
		if touchErr != nil && !errors.Is(touchErr, ErrUnknownSession) {
			t.Fatalf("iteration %d: unexpected touch error %v", i, touchErr)
		}
		s.Close()
	}
}

func TestCloseRemovesEverySession(t *testing.T) {
	s := NewStore()
	var indexes []*index.Index
	for i := 0; i < 3; i++ {
		ix, r := newIndex(t)
		indexes = append(indexes, ix)
		if _, err := s.Create(ix, r, Meta{}); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	if n := s.Close(); n != 3 {
		t.Fatalf("expected 3 sessions closed, got %d", n)
	}
	if s.Len() != 0 {
		t.Fatalf("expected empty store, got %d", s.Len())
	}
	for _, ix := range indexes {
		if _, err := ix.Search(context.Background(), "go", 1); !errors.Is(err, index.ErrIndexClosed) {
			t.Fatalf("expected closed index, got %v", err)
		}
	}
}
