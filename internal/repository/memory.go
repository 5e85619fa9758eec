package repository

import (
	"cmp"
	"context"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"motorvault/internal/model"
)

// MemoryStore keeps the economy in process memory. Transactions are fully
// serialized: WithTx holds one lock for its whole duration and works on a
// copy of the state that replaces the live state only on success.
type MemoryStore struct {
	mu     sync.Mutex
	state  *memState
	events sync.Map
}

type memState struct {
	accounts     map[string]*model.Account
	issued       map[int]int
	records      map[int64]model.OwnershipRecord
	nextRecordID int64
	holdings     map[string]map[string]model.PropertyHolding
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{state: &memState{
		accounts: make(map[string]*model.Account),
		issued:   make(map[int]int),
		records:  make(map[int64]model.OwnershipRecord),
		holdings: make(map[string]map[string]model.PropertyHolding),
	}}
}

func (s *memState) clone() *memState {
	c := &memState{
		accounts:     make(map[string]*model.Account, len(s.accounts)),
		issued:       maps.Clone(s.issued),
		records:      maps.Clone(s.records),
		nextRecordID: s.nextRecordID,
		holdings:     make(map[string]map[string]model.PropertyHolding, len(s.holdings)),
	}
	for id, a := range s.accounts {
		c.accounts[id] = a.Clone()
	}
	for id, h := range s.holdings {
		c.holdings[id] = maps.Clone(h)
	}
	return c
}

func (m *MemoryStore) WithTx(ctx context.Context, fn func(tx Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.state.clone()
	if err := fn(&memTx{s: work}); err != nil {
		return err
	}
	m.state = work
	return nil
}

func (m *MemoryStore) Leaderboard(_ context.Context, limit int) ([]model.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]model.Account, 0, len(m.state.accounts))
	for _, a := range m.state.accounts {
		out = append(out, *a.Clone())
	}
	slices.SortFunc(out, func(a, b model.Account) int {
		if c := cmp.Compare(b.Balance, a.Balance); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemoryStore) SaveEvent(_ context.Context, event model.EconomyEvent) error {
	m.events.LoadOrStore(event.ID, event)
	return nil
}

// Events returns the persisted audit events.
func (m *MemoryStore) Events() []model.EconomyEvent {
	var out []model.EconomyEvent
	m.events.Range(func(_, v any) bool {
		out = append(out, v.(model.EconomyEvent))
		return true
	})
	slices.SortFunc(out, func(a, b model.EconomyEvent) int { return a.CreatedAt.Compare(b.CreatedAt) })
	return out
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *MemoryStore) Close() {}

type memTx struct {
	s *memState
}

func (t *memTx) account(id string) (*model.Account, error) {
	a, ok := t.s.accounts[id]
	if !ok {
		return nil, model.ErrAccountNotFound
	}
	return a, nil
}

func (t *memTx) EnsureAccount(_ context.Context, id, handle, displayName string) error {
	if a, ok := t.s.accounts[id]; ok {
		a.Handle = NormalizeHandle(handle)
		a.DisplayName = displayName
		return nil
	}
	t.s.accounts[id] = &model.Account{
		ID:          id,
		Handle:      NormalizeHandle(handle),
		DisplayName: displayName,
		Currency:    model.CurrencyUSD,
		CreatedAt:   time.Now().UTC(),
		Cooldowns:   map[model.Channel]time.Time{},
		Redeemed:    map[string]time.Time{},
	}
	return nil
}

func (t *memTx) GetAccount(_ context.Context, id string) (*model.Account, error) {
	a, err := t.account(id)
	if err != nil {
		return nil, err
	}
	return a.Clone(), nil
}

func (t *memTx) FindAccount(_ context.Context, query string) (*model.Account, error) {
	handle := strings.ToLower(NormalizeHandle(strings.TrimSpace(query)))
	name := strings.TrimSpace(query)
	ids := slices.Sorted(maps.Keys(t.s.accounts))

	for _, id := range ids {
		if a := t.s.accounts[id]; handle != "" && strings.ToLower(a.Handle) == handle {
			return a.Clone(), nil
		}
	}
	for _, id := range ids {
		if a := t.s.accounts[id]; name != "" && a.DisplayName == name {
			return a.Clone(), nil
		}
	}
	return nil, model.ErrAccountNotFound
}

func (t *memTx) SetBalance(_ context.Context, id string, balance int64) error {
	a, err := t.account(id)
	if err != nil {
		return err
	}
	a.Balance = balance
	return nil
}

func (t *memTx) SetLastIncome(_ context.Context, id string, income int64) error {
	a, err := t.account(id)
	if err != nil {
		return err
	}
	a.LastIncome = income
	return nil
}

func (t *memTx) SetCurrency(_ context.Context, id string, currency model.Currency) error {
	a, err := t.account(id)
	if err != nil {
		return err
	}
	a.Currency = currency
	return nil
}

func (t *memTx) SetCooldown(_ context.Context, id string, channel model.Channel, at time.Time) error {
	a, err := t.account(id)
	if err != nil {
		return err
	}
	a.Cooldowns[channel] = at
	return nil
}

func (t *memTx) SetDropBypass(_ context.Context, id string, bypass bool) error {
	a, err := t.account(id)
	if err != nil {
		return err
	}
	a.DropCooldownBypass = bypass
	return nil
}

func (t *memTx) AddRedemption(_ context.Context, id, rewardID string, at time.Time) (bool, error) {
	a, err := t.account(id)
	if err != nil {
		return false, err
	}
	if _, ok := a.Redeemed[rewardID]; ok {
		return false, nil
	}
	a.Redeemed[rewardID] = at
	return true, nil
}

func (t *memTx) DeleteAccount(_ context.Context, id string) error {
	if _, err := t.account(id); err != nil {
		return err
	}
	delete(t.s.accounts, id)
	delete(t.s.holdings, id)
	for rid, rec := range t.s.records {
		if rec.AccountID == id {
			delete(t.s.records, rid)
		}
	}
	return nil
}

func (t *memTx) LockIssuance(_ context.Context, itemID int) (int, error) {
	return t.s.issued[itemID], nil
}

func (t *memTx) IncrementIssuance(_ context.Context, itemID int) error {
	t.s.issued[itemID]++
	return nil
}

func (t *memTx) OwnsItem(_ context.Context, accountID string, itemID int) (bool, error) {
	for _, rec := range t.s.records {
		if rec.AccountID == accountID && rec.ItemID == itemID {
			return true, nil
		}
	}
	return false, nil
}

func (t *memTx) InsertOwnership(_ context.Context, rec model.OwnershipRecord) (model.OwnershipRecord, error) {
	if _, err := t.account(rec.AccountID); err != nil {
		return model.OwnershipRecord{}, err
	}
	t.s.nextRecordID++
	rec.ID = t.s.nextRecordID
	t.s.records[rec.ID] = rec
	return rec, nil
}

func (t *memTx) GetOwnership(_ context.Context, recordID int64) (*model.OwnershipRecord, error) {
	rec, ok := t.s.records[recordID]
	if !ok {
		return nil, model.ErrRecordNotFound
	}
	return &rec, nil
}

func (t *memTx) ListOwnership(_ context.Context, accountID string) ([]model.OwnershipRecord, error) {
	var out []model.OwnershipRecord
	for _, rec := range t.s.records {
		if rec.AccountID == accountID {
			out = append(out, rec)
		}
	}
	slices.SortFunc(out, func(a, b model.OwnershipRecord) int { return cmp.Compare(a.ID, b.ID) })
	return out, nil
}

func (t *memTx) DeleteOwnership(_ context.Context, recordID int64) error {
	if _, ok := t.s.records[recordID]; !ok {
		return model.ErrRecordNotFound
	}
	delete(t.s.records, recordID)
	return nil
}

func (t *memTx) SetColor(_ context.Context, recordID int64, color string) error {
	rec, ok := t.s.records[recordID]
	if !ok {
		return model.ErrRecordNotFound
	}
	rec.Color = color
	t.s.records[recordID] = rec
	return nil
}

func (t *memTx) ListHoldings(_ context.Context, accountID string) ([]model.PropertyHolding, error) {
	out := slices.Collect(maps.Values(t.s.holdings[accountID]))
	slices.SortFunc(out, func(a, b model.PropertyHolding) int {
		if c := a.PurchasedAt.Compare(b.PurchasedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.AssetID, b.AssetID)
	})
	return out, nil
}

func (t *memTx) InsertHolding(_ context.Context, h model.PropertyHolding) error {
	if _, err := t.account(h.AccountID); err != nil {
		return err
	}
	if t.s.holdings[h.AccountID] == nil {
		t.s.holdings[h.AccountID] = make(map[string]model.PropertyHolding)
	}
	if _, ok := t.s.holdings[h.AccountID][h.AssetID]; ok {
		return model.ErrAlreadyOwned
	}
	t.s.holdings[h.AccountID][h.AssetID] = h
	return nil
}

func (t *memTx) AdvanceHolding(_ context.Context, accountID, assetID string, lastCollected time.Time) error {
	h, ok := t.s.holdings[accountID][assetID]
	if !ok {
		return model.ErrAssetNotFound
	}
	h.LastCollectedAt = lastCollected
	t.s.holdings[accountID][assetID] = h
	return nil
}
