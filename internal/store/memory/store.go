// Package memory is the in-process store used in development and unit tests.
//
// Every port of the engine is served by one Store. Per-match serialization
// uses sharded mutexes keyed by match id; registry-wide work takes every
// shard. Writes performed inside a transaction are journaled and undone when
// the transaction function fails, so a failed unit leaves nothing behind.
package memory

import (
	"context"
	"sync"
	"time"

	"tabrela/internal/models"
	id "tabrela/pkg/domain"
	dErrors "tabrela/pkg/domain-errors"
)

const numMatchShards = 128

const defaultTxTimeout = 5 * time.Second

// Store holds every aggregate in maps guarded by mu. Shard locks serialize
// transactions; mu only protects the maps themselves.
type Store struct {
	shards  [numMatchShards]sync.Mutex
	timeout time.Duration

	mu          sync.RWMutex
	events      map[id.EventID]*models.Event
	series      map[id.SeriesID]*models.MatchSeries
	matches     map[id.MatchID]*models.Match
	teams       map[id.TeamID]*models.MatchTeam
	allocations map[id.AllocationID]*models.Allocation
	history     []*models.AllocationHistory
	ballots     map[id.BallotID]*models.Ballot
	scores      map[scoreKey]*models.SpeakerScore
	rankings    map[rankingKey]*models.TeamRanking
	ledger      map[id.UserID]time.Time
	outbox      []*outboxEntry
}

type scoreKey struct {
	ballot     id.BallotID
	allocation id.AllocationID
}

type rankingKey struct {
	ballot id.BallotID
	team   id.TeamID
}

type Option func(*Store)

// WithTxTimeout bounds transactions whose context carries no deadline.
func WithTxTimeout(d time.Duration) Option {
	return func(s *Store) {
		s.timeout = d
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		events:      make(map[id.EventID]*models.Event),
		series:      make(map[id.SeriesID]*models.MatchSeries),
		matches:     make(map[id.MatchID]*models.Match),
		teams:       make(map[id.TeamID]*models.MatchTeam),
		allocations: make(map[id.AllocationID]*models.Allocation),
		ballots:     make(map[id.BallotID]*models.Ballot),
		scores:      make(map[scoreKey]*models.SpeakerScore),
		rankings:    make(map[rankingKey]*models.TeamRanking),
		ledger:      make(map[id.UserID]time.Time),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// journal collects undo steps for the writes made inside one transaction.
type journal struct {
	undo []func()
}

type journalKey struct{}

func journalFrom(ctx context.Context) (*journal, bool) {
	j, ok := ctx.Value(journalKey{}).(*journal)
	return j, ok
}

// remember registers an undo step. Callers hold s.mu.
func (s *Store) remember(ctx context.Context, undo func()) {
	if j, ok := journalFrom(ctx); ok {
		j.undo = append(j.undo, undo)
	}
}

func (s *Store) rollback(j *journal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(j.undo) - 1; i >= 0; i-- {
		j.undo[i]()
	}
	j.undo = nil
}

// RunInTx runs fn holding every shard, excluding all match transactions.
// A call nested inside another transaction joins it.
func (s *Store) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return s.run(ctx, fn, func() func() {
		for i := range s.shards {
			s.shards[i].Lock()
		}
		return func() {
			for i := len(s.shards) - 1; i >= 0; i-- {
				s.shards[i].Unlock()
			}
		}
	})
}

// RunInMatchTx runs fn holding the shard owning matchID. The match must exist.
func (s *Store) RunInMatchTx(ctx context.Context, matchID id.MatchID, fn func(ctx context.Context) error) error {
	return s.run(ctx, func(ctx context.Context) error {
		s.mu.RLock()
		_, ok := s.matches[matchID]
		s.mu.RUnlock()
		if !ok {
			return errNotFound
		}
		return fn(ctx)
	}, func() func() {
		shard := shardFor(matchID)
		s.shards[shard].Lock()
		return s.shards[shard].Unlock
	})
}

func (s *Store) run(ctx context.Context, fn func(ctx context.Context) error, lock func() func()) error {
	if _, nested := journalFrom(ctx); nested {
		return fn(ctx)
	}
	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	timeout := s.timeout
	if timeout == 0 {
		timeout = defaultTxTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	unlock := lock()
	defer unlock()

	if err := ctx.Err(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeTimeout, "transaction aborted: context cancelled")
	}

	j := &journal{}
	if err := fn(context.WithValue(ctx, journalKey{}, j)); err != nil {
		s.rollback(j)
		return err
	}
	return nil
}

func shardFor(matchID id.MatchID) int {
	return int(hashString(matchID.String()) % numMatchShards)
}

// hashString is FNV-1a.
func hashString(s string) uint32 {
	const (
		fnvOffset = 2166136261
		fnvPrime  = 16777619
	)
	h := uint32(fnvOffset)
	for i := 0; i < len(s); i++ {
		h ^= uint32(s[i])
		h *= fnvPrime
	}
	return h
}
