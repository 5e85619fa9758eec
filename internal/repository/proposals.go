package repository

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"motorvault/internal/model"
)

//go:embed take_proposal.lua
var takeProposalScript string

// ProposalStore keeps pending trade proposals. Proposals are ephemeral and
// are not expected to survive a restart of the memory implementation.
type ProposalStore interface {
	Save(ctx context.Context, p model.TradeProposal) error
	// Get returns ErrProposalNotFound for unknown or resolved ids.
	Get(ctx context.Context, id string) (*model.TradeProposal, error)
	// Take atomically removes and returns a proposal addressed to
	// counterpartyID. It fails with ErrNotParticipant for anyone else.
	Take(ctx context.Context, id, counterpartyID string) (*model.TradeProposal, error)
	Delete(ctx context.Context, id string) error
}

type RedisProposalStore struct {
	rdb       *redis.Client
	retention time.Duration
	take      *redis.Script
}

// NewRedisProposalStore stores proposals as JSON documents that expire after
// retention. A zero retention keeps them until resolved.
func NewRedisProposalStore(rdb *redis.Client, retention time.Duration) *RedisProposalStore {
	return &RedisProposalStore{
		rdb:       rdb,
		retention: retention,
		take:      redis.NewScript(takeProposalScript),
	}
}

func proposalKey(id string) string {
	return "proposal:" + id
}

func (s *RedisProposalStore) Save(ctx context.Context, p model.TradeProposal) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode proposal: %w", err)
	}
	if err := s.rdb.Set(ctx, proposalKey(p.ID), data, s.retention).Err(); err != nil {
		return fmt.Errorf("failed to save proposal to Redis: %w", err)
	}
	return nil
}

func (s *RedisProposalStore) Get(ctx context.Context, id string) (*model.TradeProposal, error) {
	data, err := s.rdb.Get(ctx, proposalKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, model.ErrProposalNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load proposal from Redis: %w", err)
	}
	return decodeProposal(data)
}

func (s *RedisProposalStore) Take(ctx context.Context, id, counterpartyID string) (*model.TradeProposal, error) {
	result, err := s.take.Run(ctx, s.rdb, []string{proposalKey(id)}, counterpartyID).Result()
	if err != nil {
		return nil, fmt.Errorf("error executing take script: %w", err)
	}

	resArray, ok := result.([]interface{})
	if !ok || len(resArray) < 1 {
		return nil, errors.New("unexpected response format from Redis")
	}
	status, _ := resArray[0].(int64)

	switch status {
	case 1:
		payload, _ := resArray[1].(string)
		return decodeProposal([]byte(payload))
	case 0:
		return nil, model.ErrProposalNotFound
	case -1:
		return nil, model.ErrNotParticipant
	default:
		return nil, fmt.Errorf("unknown status from take script: %d", status)
	}
}

func (s *RedisProposalStore) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, proposalKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete proposal from Redis: %w", err)
	}
	return nil
}

func decodeProposal(data []byte) (*model.TradeProposal, error) {
	var p model.TradeProposal
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode proposal: %w", err)
	}
	return &p, nil
}

type MemoryProposalStore struct {
	mu        sync.Mutex
	proposals map[string]model.TradeProposal
}

func NewMemoryProposalStore() *MemoryProposalStore {
	return &MemoryProposalStore{proposals: make(map[string]model.TradeProposal)}
}

func (s *MemoryProposalStore) Save(_ context.Context, p model.TradeProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proposals[p.ID] = p
	return nil
}

func (s *MemoryProposalStore) Get(_ context.Context, id string) (*model.TradeProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, model.ErrProposalNotFound
	}
	return &p, nil
}

func (s *MemoryProposalStore) Take(_ context.Context, id, counterpartyID string) (*model.TradeProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.proposals[id]
	if !ok {
		return nil, model.ErrProposalNotFound
	}
	if p.CounterpartyID != counterpartyID {
		return nil, model.ErrNotParticipant
	}
	delete(s.proposals, id)
	return &p, nil
}

func (s *MemoryProposalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.proposals, id)
	return nil
}
