package repository

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/lairofevil/standings/internal/domain/model"
	"github.com/lairofevil/standings/pkg/metrics"
)

// table keeps records by id in insertion order.
type table[V any] struct {
	byID  map[string]V
	order []string
}

func newTable[V any]() *table[V] {
	return &table[V]{byID: make(map[string]V)}
}

func (t *table[V]) get(id string) (V, bool) {
	v, ok := t.byID[id]
	return v, ok
}

// put stores v under id. An existing id keeps its position.
func (t *table[V]) put(id string, v V) {
	if _, ok := t.byID[id]; !ok {
		t.order = append(t.order, id)
	}
	t.byID[id] = v
}

func (t *table[V]) remove(id string) bool {
	if _, ok := t.byID[id]; !ok {
		return false
	}
	delete(t.byID, id)
	for i, o := range t.order {
		if o == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return true
}

// values returns the records accepted by keep, in insertion order.
func (t *table[V]) values(keep func(V) bool) []V {
	out := make([]V, 0, len(t.order))
	for _, id := range t.order {
		v := t.byID[id]
		if keep == nil || keep(v) {
			out = append(out, v)
		}
	}
	return out
}

func (t *table[V]) len() int { return len(t.byID) }

// MemoryStore is an in-memory Store safe for concurrent use.
type MemoryStore struct {
	mu sync.RWMutex

	runs     *table[model.ScoredRun]
	players  *table[model.Player]
	teams    *table[model.Team]
	rounds   *table[model.Round]
	money    *table[model.MoneyResult]
	sessions *table[model.VoteSession]
	votes    map[string]*table[model.Vote] // session id -> voter uid -> vote

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore constructs an empty store and starts its metrics updater.
// The updater stops when ctx is done or Close is called.
func NewMemoryStore(ctx context.Context, opts ...Option) *MemoryStore {
	s := &MemoryStore{
		runs:                  newTable[model.ScoredRun](),
		players:               newTable[model.Player](),
		teams:                 newTable[model.Team](),
		rounds:                newTable[model.Round](),
		money:                 newTable[model.MoneyResult](),
		sessions:              newTable[model.VoteSession](),
		votes:                 make(map[string]*table[model.Vote]),
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops background goroutines.
func (s *MemoryStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

func (s *MemoryStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateStoredRuns(s.Count(ctx))
			}
		}
	}()
}

// Count implements Store.
func (s *MemoryStore) Count(_ context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.len()
}

func notFound() error {
	metrics.RecordErrorByComponent("repository", "not_found")
	return ErrNotFound
}

// InsertRun implements RunStore.
func (s *MemoryStore) InsertRun(_ context.Context, run model.ScoredRun) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.runs.get(run.ID); ok {
		return ErrConflict
	}
	s.runs.put(run.ID, run)
	return nil
}

// DeleteRun implements RunStore.
func (s *MemoryStore) DeleteRun(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.runs.remove(id) {
		return notFound()
	}
	return nil
}

// GetRun implements RunStore.
func (s *MemoryStore) GetRun(_ context.Context, id string) (model.ScoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs.get(id)
	if !ok {
		return model.ScoredRun{}, notFound()
	}
	return run, nil
}

// ListRunsByRound implements RunStore.
func (s *MemoryStore) ListRunsByRound(_ context.Context, roundID string) ([]model.ScoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.values(func(r model.ScoredRun) bool { return r.RoundID == roundID }), nil
}

// ListRunsByPlayer implements RunStore.
func (s *MemoryStore) ListRunsByPlayer(_ context.Context, playerID string) ([]model.ScoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.values(func(r model.ScoredRun) bool { return r.PlayerID == playerID }), nil
}

// AllRuns implements RunStore.
func (s *MemoryStore) AllRuns(_ context.Context) ([]model.ScoredRun, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.runs.values(nil), nil
}

// UpsertPlayer implements RosterStore.
func (s *MemoryStore) UpsertPlayer(_ context.Context, p model.Player) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.players.put(p.ID, p)
	return nil
}

// GetPlayer implements RosterStore.
func (s *MemoryStore) GetPlayer(_ context.Context, id string) (model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.players.get(id)
	if !ok {
		return model.Player{}, notFound()
	}
	return p, nil
}

// ListPlayers implements RosterStore.
func (s *MemoryStore) ListPlayers(_ context.Context) ([]model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.players.values(nil), nil
}

// UpsertTeam implements RosterStore.
func (s *MemoryStore) UpsertTeam(_ context.Context, t model.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t.Members = slices.Clone(t.Members)
	s.teams.put(t.ID, t)
	return nil
}

// ListTeams implements RosterStore.
func (s *MemoryStore) ListTeams(_ context.Context) ([]model.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	teams := s.teams.values(nil)
	for i := range teams {
		teams[i].Members = slices.Clone(teams[i].Members)
	}
	return teams, nil
}

// InsertRound implements RosterStore.
func (s *MemoryStore) InsertRound(_ context.Context, r model.Round) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rounds.get(r.ID); ok {
		return ErrConflict
	}
	s.rounds.put(r.ID, r)
	return nil
}

// GetRound implements RosterStore.
func (s *MemoryStore) GetRound(_ context.Context, id string) (model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rounds.get(id)
	if !ok {
		return model.Round{}, notFound()
	}
	return r, nil
}

// ListRounds implements RosterStore.
func (s *MemoryStore) ListRounds(_ context.Context) ([]model.Round, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rounds.values(nil), nil
}

// InsertMoneyResult implements RosterStore.
func (s *MemoryStore) InsertMoneyResult(_ context.Context, r model.MoneyResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.money.get(r.ID); ok {
		return ErrConflict
	}
	s.money.put(r.ID, r)
	return nil
}

// ListMoneyResults implements RosterStore.
func (s *MemoryStore) ListMoneyResults(_ context.Context, roundID string) ([]model.MoneyResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.money.values(func(r model.MoneyResult) bool { return r.RoundID == roundID }), nil
}

// InsertSession implements SessionStore.
func (s *MemoryStore) InsertSession(_ context.Context, vs model.VoteSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions.get(vs.ID); ok {
		return ErrConflict
	}
	s.sessions.put(vs.ID, vs)
	s.votes[vs.ID] = newTable[model.Vote]()
	return nil
}

// GetSession implements SessionStore.
func (s *MemoryStore) GetSession(_ context.Context, id string) (model.VoteSession, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vs, ok := s.sessions.get(id)
	if !ok {
		return model.VoteSession{}, notFound()
	}
	return vs, nil
}

// CloseSession implements SessionStore.
func (s *MemoryStore) CloseSession(_ context.Context, closed model.VoteSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.sessions.get(closed.ID)
	if !ok {
		return notFound()
	}
	if current.Closed {
		return ErrClosed
	}
	s.sessions.put(closed.ID, closed)
	return nil
}

// DeleteSession implements SessionStore.
func (s *MemoryStore) DeleteSession(_ context.Context, id string) (model.VoteSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.sessions.get(id)
	if !ok {
		return model.VoteSession{}, notFound()
	}
	s.sessions.remove(id)
	delete(s.votes, id)
	return vs, nil
}

// UpsertVote implements SessionStore.
func (s *MemoryStore) UpsertVote(_ context.Context, v model.Vote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vs, ok := s.sessions.get(v.SessionID)
	if !ok {
		return notFound()
	}
	if vs.Closed {
		return ErrClosed
	}
	s.votes[v.SessionID].put(v.VoterUID, v)
	return nil
}

// ListVotes implements SessionStore.
func (s *MemoryStore) ListVotes(_ context.Context, sessionID string) ([]model.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	votes, ok := s.votes[sessionID]
	if !ok {
		return nil, notFound()
	}
	return votes.values(nil), nil
}
