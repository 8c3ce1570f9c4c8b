package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/okian/salto/internal/domain/model"
	"github.com/okian/salto/pkg/metrics"
)

// scoreKey is the natural key of a judge submission.
type scoreKey struct {
	performanceID int64
	judgeID       int64
	scoreType     model.ScoreType
}

// perfKey is the natural key of a performance.
type perfKey struct {
	eventID     int64
	athleteID   int64
	apparatusID int64
}

// MemStore is the in-memory Store used as the default backend and in tests.
// One mutex guards all state: score snapshots and the conditional final-score
// replace each happen under a single critical section, which is what makes
// them consistent and atomic respectively.
type MemStore struct {
	mu sync.RWMutex

	events       map[int64]model.Event
	apparatus    map[int64]model.Apparatus
	athletes     map[int64]model.Athlete
	performances map[int64]model.Performance
	perfByKey    map[perfKey]int64
	scores       map[scoreKey]model.Score
	finals       map[int64]model.FinalScore

	nextID map[string]int64
}

var _ Store = (*MemStore)(nil)

// NewMemStore creates an empty in-memory store.
func NewMemStore() *MemStore {
	return &MemStore{
		events:       make(map[int64]model.Event),
		apparatus:    make(map[int64]model.Apparatus),
		athletes:     make(map[int64]model.Athlete),
		performances: make(map[int64]model.Performance),
		perfByKey:    make(map[perfKey]int64),
		scores:       make(map[scoreKey]model.Score),
		finals:       make(map[int64]model.FinalScore),
		nextID:       make(map[string]int64),
	}
}

// seq hands out the next surrogate id for an entity kind. Must hold m.mu.
func (m *MemStore) seq(kind string) int64 {
	m.nextID[kind]++
	return m.nextID[kind]
}

// PutEvent inserts or replaces an event.
func (m *MemStore) PutEvent(ctx context.Context, e model.Event) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if e.ID == 0 {
		e.ID = m.seq("event")
	}
	m.events[e.ID] = e
	return e, nil
}

// PutApparatus inserts or replaces an apparatus.
func (m *MemStore) PutApparatus(ctx context.Context, a model.Apparatus) (model.Apparatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == 0 {
		a.ID = m.seq("apparatus")
	}
	m.apparatus[a.ID] = a
	return a, nil
}

// PutAthlete inserts or replaces an athlete.
func (m *MemStore) PutAthlete(ctx context.Context, a model.Athlete) (model.Athlete, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if a.ID == 0 {
		a.ID = m.seq("athlete")
	}
	m.athletes[a.ID] = a
	return a, nil
}

// PutPerformance upserts by the (event, athlete, apparatus) natural key.
func (m *MemStore) PutPerformance(ctx context.Context, p model.Performance) (model.Performance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.events[p.EventID]; !ok {
		return model.Performance{}, fmt.Errorf("event %d: %w", p.EventID, ErrMissingReference)
	}
	if _, ok := m.athletes[p.AthleteID]; !ok {
		return model.Performance{}, fmt.Errorf("athlete %d: %w", p.AthleteID, ErrMissingReference)
	}
	if _, ok := m.apparatus[p.ApparatusID]; !ok {
		return model.Performance{}, fmt.Errorf("apparatus %d: %w", p.ApparatusID, ErrMissingReference)
	}

	key := perfKey{p.EventID, p.AthleteID, p.ApparatusID}
	if existing, ok := m.perfByKey[key]; ok {
		p.ID = existing
	} else if p.ID == 0 {
		p.ID = m.seq("performance")
	}
	m.performances[p.ID] = p
	m.perfByKey[key] = p.ID
	return p, nil
}

// PerformanceFor returns a performance by id.
func (m *MemStore) PerformanceFor(ctx context.Context, id int64) (model.Performance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.performances[id]
	if !ok {
		return model.Performance{}, fmt.Errorf("performance %d: %w", id, ErrNotFound)
	}
	return p, nil
}

// ApparatusFor returns an apparatus by id.
func (m *MemStore) ApparatusFor(ctx context.Context, id int64) (model.Apparatus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	a, ok := m.apparatus[id]
	if !ok {
		return model.Apparatus{}, fmt.Errorf("apparatus %d: %w", id, ErrNotFound)
	}
	return a, nil
}

// UpsertScore writes a judge submission, last write winning.
func (m *MemStore) UpsertScore(ctx context.Context, s model.Score) (model.Score, bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.performances[s.PerformanceID]; !ok {
		return model.Score{}, false, fmt.Errorf("performance %d: %w", s.PerformanceID, ErrMissingReference)
	}

	key := scoreKey{s.PerformanceID, s.JudgeID, s.ScoreType}
	existing, overwrote := m.scores[key]
	if overwrote {
		s.ID = existing.ID
	} else {
		s.ID = m.seq("score")
	}
	s.Penalties = append([]model.Penalty(nil), s.Penalties...)
	m.scores[key] = s
	return s, overwrote, nil
}

// ScoresForPerformance returns a consistent ordered snapshot of live scores.
func (m *MemStore) ScoresForPerformance(ctx context.Context, performanceID int64) ([]model.Score, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []model.Score
	for key, s := range m.scores {
		if key.performanceID != performanceID {
			continue
		}
		s.Penalties = append([]model.Penalty(nil), s.Penalties...)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ScoreType != out[j].ScoreType {
			return out[i].ScoreType < out[j].ScoreType
		}
		if !out[i].SubmittedAt.Equal(out[j].SubmittedAt) {
			return out[i].SubmittedAt.Before(out[j].SubmittedAt)
		}
		return out[i].JudgeID < out[j].JudgeID
	})
	return out, nil
}

// UpsertFinalScore atomically inserts or replaces the single final score row
// for a performance. A published row is only replaced when force is true, and
// even then keeps its publication fields.
func (m *MemStore) UpsertFinalScore(ctx context.Context, fs model.FinalScore, force bool) (model.FinalScore, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreUpdateLatency(float64(time.Since(start).Milliseconds()))
	}()

	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.finals[fs.PerformanceID]
	if ok {
		if existing.IsOfficial && !force {
			return model.FinalScore{}, fmt.Errorf("performance %d: %w", fs.PerformanceID, ErrAlreadyPublished)
		}
		fs.IsOfficial = existing.IsOfficial
		fs.PublishedAt = existing.PublishedAt
	} else {
		fs.IsOfficial = false
		fs.PublishedAt = nil
	}
	m.finals[fs.PerformanceID] = fs
	return fs, nil
}

// FinalScoreFor returns the final score for a performance.
func (m *MemStore) FinalScoreFor(ctx context.Context, performanceID int64) (model.FinalScore, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	fs, ok := m.finals[performanceID]
	if !ok {
		return model.FinalScore{}, fmt.Errorf("final score for performance %d: %w", performanceID, ErrNotFound)
	}
	return fs, nil
}

// Publish marks existing final scores official, skipping unknown ids.
func (m *MemStore) Publish(ctx context.Context, performanceIDs []int64, at time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for _, id := range performanceIDs {
		fs, ok := m.finals[id]
		if !ok {
			continue
		}
		fs.IsOfficial = true
		published := at
		fs.PublishedAt = &published
		m.finals[id] = fs
		affected++
	}
	return affected, nil
}

// Unpublish reopens published final scores.
func (m *MemStore) Unpublish(ctx context.Context, performanceIDs []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var affected int64
	for _, id := range performanceIDs {
		fs, ok := m.finals[id]
		if !ok || !fs.IsOfficial {
			continue
		}
		fs.IsOfficial = false
		fs.PublishedAt = nil
		m.finals[id] = fs
		affected++
	}
	return affected, nil
}

// LeaderboardRows returns unordered join rows for an event.
func (m *MemStore) LeaderboardRows(ctx context.Context, eventID int64, apparatusID *int64) ([]Row, error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreQueryLatency(float64(time.Since(start).Milliseconds()))
	}()

	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, ok := m.events[eventID]; !ok {
		return nil, fmt.Errorf("event %d: %w", eventID, ErrNotFound)
	}

	var rows []Row
	for _, p := range m.performances {
		if p.EventID != eventID {
			continue
		}
		if apparatusID != nil && p.ApparatusID != *apparatusID {
			continue
		}
		row := Row{
			Performance: p,
			Athlete:     m.athletes[p.AthleteID],
			Apparatus:   m.apparatus[p.ApparatusID],
		}
		if fs, ok := m.finals[p.ID]; ok {
			final := fs
			row.Final = &final
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// CountPerformances returns the number of tracked performances.
func (m *MemStore) CountPerformances(ctx context.Context) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.performances)
}

// Close implements Store; the in-memory store holds no resources.
func (m *MemStore) Close() error {
	return nil
}
