// Package session keeps each dashboard user's dataset and report in memory.
// Nothing is persisted: a session disappears after its TTL of inactivity.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"xhs-insight/models"
	"xhs-insight/services"
	"xhs-insight/utils"
)

var (
	ErrNotFound = errors.New("session not found")
	// ErrStale means the dataset was replaced while a report was being generated.
	ErrStale = errors.New("dataset changed while the report was generated")
	// ErrNoReport means no report has been generated for the current dataset.
	ErrNoReport = errors.New("no report for the current dataset")
)

// Snapshot is a read-only copy of a session's state.
type Snapshot struct {
	ID         string
	Generation uint64
	Posts      []*models.CleanPost
	Report     *models.Report
	UpdatedAt  time.Time
}

// Summary is recomputed on every call.
func (s *Snapshot) Summary() *models.Summary {
	return services.Summarize(s.Posts)
}

type entry struct {
	generation uint64
	posts      []*models.CleanPost
	report     *models.Report
	touched    time.Time
}

// Store holds sessions keyed by a random id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry
	ttl      time.Duration
	reports  singleflight.Group
	logger   *utils.Logger
	now      func() time.Time
}

// NewStore creates a Store whose sessions expire after ttl without access.
// A ttl <= 0 disables expiry.
func NewStore(ttl time.Duration, logger *utils.Logger) *Store {
	return &Store{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		logger:   logger,
		now:      time.Now,
	}
}

// Create starts a new session holding posts.
func (s *Store) Create(posts []*models.CleanPost) *Snapshot {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	e := &entry{generation: 1, posts: posts, touched: s.now()}
	s.sessions[id] = e
	s.logger.Debug("[session] Created %s with %d posts", id, len(posts))
	return e.snapshot(id)
}

// Replace swaps the whole dataset of a session, bumps its generation and
// drops any report built from the previous data.
func (s *Store) Replace(id string, posts []*models.CleanPost) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.generation++
	e.posts = posts
	e.report = nil
	e.touched = s.now()
	s.logger.Debug("[session] Replaced dataset of %s (generation %d, %d posts)", id, e.generation, len(posts))
	return e.snapshot(id), nil
}

// Get returns the current state of a session.
func (s *Store) Get(id string) (*Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.touched = s.now()
	return e.snapshot(id), nil
}

// Report returns the report for the current dataset.
func (s *Store) Report(id string) (*models.Report, error) {
	snap, err := s.Get(id)
	if err != nil {
		return nil, err
	}
	if snap.Report == nil {
		return nil, ErrNoReport
	}
	return snap.Report, nil
}

// GenerateReport runs svc for the session's current dataset. Concurrent calls
// for the same dataset share one upstream request, which keeps running when
// the caller that started it goes away. The result is stored only
// if the dataset was not replaced in the meantime; otherwise ErrStale.
func (s *Store) GenerateReport(ctx context.Context, id string, svc *services.ReportService) (*models.Report, error) {
	snap, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	// The shared call outlives any single caller; the generator applies its own timeout.
	key := fmt.Sprintf("%s/%d", id, snap.Generation)
	ch := s.reports.DoChan(key, func() (any, error) {
		return svc.Generate(context.WithoutCancel(ctx), snap.Posts, snap.Generation)
	})

	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}
	if res.Shared {
		s.logger.Debug("[session] Report request for %s joined an in-flight call", key)
	}
	report := res.Val.(*models.Report)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	if e.generation != report.Generation {
		s.logger.Warn("[session] Discarding report for %s: generation %d superseded by %d",
			id, report.Generation, e.generation)
		return nil, ErrStale
	}
	e.report = report
	e.touched = s.now()
	return report, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep removes sessions idle for longer than the TTL and returns how many.
func (s *Store) Sweep() int {
	if s.ttl <= 0 {
		return 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.ttl)
	removed := 0
	for id, e := range s.sessions {
		if e.touched.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// RunJanitor sweeps expired sessions every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				s.logger.Info("[session] Expired %d idle session(s), %d left", n, s.Len())
			}
		}
	}
}

func (e *entry) snapshot(id string) *Snapshot {
	return &Snapshot{
		ID:         id,
		Generation: e.generation,
		Posts:      e.posts,
		Report:     e.report,
		UpdatedAt:  e.touched,
	}
}
