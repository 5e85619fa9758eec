package trade

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"motorvault/internal/clock"
	"motorvault/internal/logger"
	"motorvault/internal/model"
	"motorvault/internal/notify"
	"motorvault/internal/repository"
)

type Config struct {
	// AdvisoryAfter is the delay of the "time expired" notice sent to the
	// counterparty. The proposal stays acceptable afterwards.
	AdvisoryAfter time.Duration
	// CancelAdvisoryOnResolve stops the pending advisory once the proposal is
	// accepted or rejected.
	CancelAdvisoryOnResolve bool
}

func DefaultConfig() Config {
	return Config{AdvisoryAfter: 5 * time.Minute}
}

// ItemCatalog names items in notices.
type ItemCatalog interface {
	Lookup(itemID int) (model.CatalogItem, bool)
}

// Stage is the step of an initiator's negotiation before a proposal exists.
type Stage string

const (
	StageInit            Stage = "init"
	StageAwaitingPartner Stage = "awaiting_partner"
)

// session values are never modified once stored; a step that changes the
// session stores a new value. Callers may read a session outside n.mu.
type session struct {
	stage     Stage
	initiator model.Account
	offered   model.OwnershipRecord
	partner   *model.Account
}

// Partner is the counterparty resolved for a session together with the
// records the initiator may ask for.
type Partner struct {
	Account model.Account           `json:"account"`
	Records []model.OwnershipRecord `json:"records"`
}

// Negotiator drives two-party trades. Sessions before the proposal live in
// process memory, one per initiator; proposals go to the proposal store.
// An initiator may have any number of open proposals.
type Negotiator struct {
	cfg       Config
	store     repository.Store
	proposals repository.ProposalStore
	catalog   ItemCatalog
	notifier  notify.Notifier
	clock     clock.Clock
	scheduler *Scheduler

	mu       sync.Mutex
	sessions map[string]*session
}

func NewNegotiator(cfg Config, store repository.Store, proposals repository.ProposalStore, catalog ItemCatalog, notifier notify.Notifier, clk clock.Clock) *Negotiator {
	return &Negotiator{
		cfg:       cfg,
		store:     store,
		proposals: proposals,
		catalog:   catalog,
		notifier:  notifier,
		clock:     clk,
		scheduler: NewScheduler(clk),
		sessions:  make(map[string]*session),
	}
}

// Begin starts a negotiation offering recordID. A previous unfinished
// session of the initiator is replaced.
func (n *Negotiator) Begin(ctx context.Context, initiatorID string, recordID int64) (*model.OwnershipRecord, error) {
	var (
		initiator *model.Account
		offered   *model.OwnershipRecord
	)
	err := n.store.WithTx(ctx, func(tx repository.Tx) error {
		acc, err := tx.GetAccount(ctx, initiatorID)
		if err != nil {
			return err
		}
		rec, err := ownedRecord(ctx, tx, initiatorID, recordID)
		if err != nil {
			return err
		}
		initiator, offered = acc, rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	n.sessions[initiatorID] = &session{stage: StageInit, initiator: *initiator, offered: *offered}
	n.mu.Unlock()
	return offered, nil
}

// SelectPartner resolves the counterparty by handle or display name and
// returns what they own. It may be called again to pick another partner.
func (n *Negotiator) SelectPartner(ctx context.Context, initiatorID, query string) (*Partner, error) {
	if _, err := n.session(initiatorID, StageInit, StageAwaitingPartner); err != nil {
		return nil, err
	}

	var partner Partner
	err := n.store.WithTx(ctx, func(tx repository.Tx) error {
		acc, err := tx.FindAccount(ctx, query)
		if errors.Is(err, model.ErrAccountNotFound) {
			return model.ErrPartnerNotFound
		}
		if err != nil {
			return err
		}
		if acc.ID == initiatorID {
			return model.ErrSelfTradeNotAllowed
		}
		records, err := tx.ListOwnership(ctx, acc.ID)
		if err != nil {
			return err
		}
		if len(records) == 0 {
			return model.ErrNothingToTrade
		}
		partner = Partner{Account: *acc, Records: records}
		return nil
	})
	if err != nil {
		return nil, err
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.sessions[initiatorID]
	if !ok {
		return nil, model.ErrNoActiveSession
	}
	next := *s
	next.stage = StageAwaitingPartner
	acc := partner.Account
	next.partner = &acc
	n.sessions[initiatorID] = &next
	return &partner, nil
}

// Propose asks the selected partner for recordID in exchange for the offered
// record. The session ends and the proposal is delivered to the partner.
func (n *Negotiator) Propose(ctx context.Context, initiatorID string, recordID int64) (*model.TradeProposal, error) {
	s, err := n.session(initiatorID, StageAwaitingPartner)
	if err != nil {
		return nil, err
	}

	var requested *model.OwnershipRecord
	err = n.store.WithTx(ctx, func(tx repository.Tx) error {
		rec, err := ownedRecord(ctx, tx, s.partner.ID, recordID)
		if err != nil {
			return err
		}
		requested = rec
		return nil
	})
	if err != nil {
		return nil, err
	}

	now := n.clock.Now()
	p := model.TradeProposal{
		ID:                uuid.NewString(),
		InitiatorID:       initiatorID,
		OfferedRecordID:   s.offered.ID,
		OfferedItemID:     s.offered.ItemID,
		CounterpartyID:    s.partner.ID,
		RequestedRecordID: requested.ID,
		RequestedItemID:   requested.ItemID,
		CreatedAt:         now,
		ExpiresAt:         now.Add(n.cfg.AdvisoryAfter),
	}
	if err := n.proposals.Save(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to save proposal: %w", err)
	}

	n.mu.Lock()
	if n.sessions[initiatorID] == s {
		delete(n.sessions, initiatorID)
	}
	n.mu.Unlock()

	n.notify(ctx, p.CounterpartyID, notify.Notice{
		Kind: notify.NoticeTradeProposed,
		Text: fmt.Sprintf("%s offers %s for your %s",
			label(&s.initiator), n.itemName(p.OfferedItemID), n.itemName(p.RequestedItemID)),
		ProposalID: p.ID,
		Actions: []notify.Action{
			{Label: "Accept", Command: "trade_accept"},
			{Label: "Reject", Command: "trade_reject"},
		},
	})
	n.scheduleAdvisory(p, label(&s.initiator))

	logger.InfoCtx(ctx, "trade proposed",
		zap.String("proposal_id", p.ID),
		zap.String("account_id", initiatorID),
		zap.String("counterparty_id", p.CounterpartyID),
	)
	return &p, nil
}

// Accept swaps the two records. Both are re-checked at this point: if either
// side no longer holds its record the trade fails with ErrStaleProposal and
// nothing changes.
func (n *Negotiator) Accept(ctx context.Context, accountID, proposalID string) (*model.TradeResult, error) {
	p, err := n.proposals.Get(ctx, proposalID)
	if err != nil {
		return nil, err
	}
	if p.CounterpartyID != accountID {
		return nil, model.ErrNotParticipant
	}

	result := model.TradeResult{Proposal: *p}
	err = n.store.WithTx(ctx, func(tx repository.Tx) error {
		offered, requested, err := lockPair(ctx, tx, p)
		if err != nil {
			return err
		}
		if offered.AccountID != p.InitiatorID || requested.AccountID != p.CounterpartyID {
			return model.ErrStaleProposal
		}

		if err := tx.DeleteOwnership(ctx, offered.ID); err != nil {
			return err
		}
		if err := tx.DeleteOwnership(ctx, requested.ID); err != nil {
			return err
		}

		now := n.clock.Now()
		result.InitiatorGot, err = tx.InsertOwnership(ctx, swapped(p.InitiatorID, requested.ItemID, now))
		if err != nil {
			return err
		}
		result.CounterpartyGot, err = tx.InsertOwnership(ctx, swapped(p.CounterpartyID, offered.ItemID, now))
		return err
	})
	if err != nil {
		return nil, err
	}

	if err := n.proposals.Delete(ctx, p.ID); err != nil {
		logger.WarnCtx(ctx, "failed to drop accepted proposal",
			zap.String("proposal_id", p.ID), zap.Error(err))
	}
	n.resolved(p.ID)

	text := fmt.Sprintf("Trade complete: %s for %s",
		n.itemName(p.OfferedItemID), n.itemName(p.RequestedItemID))
	for _, id := range []string{p.InitiatorID, p.CounterpartyID} {
		n.notify(ctx, id, notify.Notice{Kind: notify.NoticeTradeAccepted, Text: text, ProposalID: p.ID})
	}

	logger.InfoCtx(ctx, "trade accepted",
		zap.String("proposal_id", p.ID),
		zap.String("account_id", accountID),
	)
	return &result, nil
}

// Reject discards the proposal without touching either account.
func (n *Negotiator) Reject(ctx context.Context, accountID, proposalID string) (*model.TradeProposal, error) {
	p, err := n.proposals.Take(ctx, proposalID, accountID)
	if err != nil {
		return nil, err
	}
	n.resolved(p.ID)
	n.notify(ctx, p.InitiatorID, notify.Notice{
		Kind:       notify.NoticeTradeRejected,
		Text:       fmt.Sprintf("Your offer of %s was declined", n.itemName(p.OfferedItemID)),
		ProposalID: p.ID,
	})
	return p, nil
}

// Cancel drops the initiator's unfinished session.
func (n *Negotiator) Cancel(initiatorID string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.sessions[initiatorID]; !ok {
		return model.ErrNoActiveSession
	}
	delete(n.sessions, initiatorID)
	return nil
}

// SessionStage reports the stage of the initiator's unfinished session.
func (n *Negotiator) SessionStage(initiatorID string) (Stage, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.sessions[initiatorID]
	if !ok {
		return "", false
	}
	return s.stage, true
}

// Stop cancels pending advisories.
func (n *Negotiator) Stop() {
	n.scheduler.Stop()
}

func (n *Negotiator) session(initiatorID string, stages ...Stage) (*session, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	s, ok := n.sessions[initiatorID]
	if !ok {
		return nil, model.ErrNoActiveSession
	}
	for _, st := range stages {
		if s.stage == st {
			return s, nil
		}
	}
	return nil, model.ErrNoActiveSession
}

func (n *Negotiator) scheduleAdvisory(p model.TradeProposal, from string) {
	notice := notify.Notice{
		Kind:       notify.NoticeTradeAdvisory,
		Text:       fmt.Sprintf("Time to answer the offer from %s has run out", from),
		ProposalID: p.ID,
	}
	n.scheduler.Schedule(p.ID, n.cfg.AdvisoryAfter, func() {
		n.notify(context.Background(), p.CounterpartyID, notice)
	})
}

func (n *Negotiator) resolved(proposalID string) {
	if n.cfg.CancelAdvisoryOnResolve {
		n.scheduler.Cancel(proposalID)
	}
}

// notify never fails the caller.
func (n *Negotiator) notify(ctx context.Context, accountID string, notice notify.Notice) {
	if err := n.notifier.Notify(ctx, accountID, notice); err != nil {
		logger.WarnCtx(ctx, "notice not delivered",
			zap.String("account_id", accountID),
			zap.String("proposal_id", notice.ProposalID),
			zap.Error(err),
		)
	}
}

func (n *Negotiator) itemName(itemID int) string {
	if item, ok := n.catalog.Lookup(itemID); ok {
		return item.Name
	}
	return fmt.Sprintf("item #%d", itemID)
}

func label(acc *model.Account) string {
	switch {
	case acc.Handle != "":
		return "@" + acc.Handle
	case acc.DisplayName != "":
		return acc.DisplayName
	}
	return acc.ID
}

func ownedRecord(ctx context.Context, tx repository.Tx, accountID string, recordID int64) (*model.OwnershipRecord, error) {
	rec, err := tx.GetOwnership(ctx, recordID)
	if errors.Is(err, model.ErrRecordNotFound) {
		return nil, model.ErrNotOwned
	}
	if err != nil {
		return nil, err
	}
	if rec.AccountID != accountID {
		return nil, model.ErrNotOwned
	}
	return rec, nil
}

// lockPair locks both records in ascending id order. A missing record makes
// the proposal stale.
func lockPair(ctx context.Context, tx repository.Tx, p *model.TradeProposal) (offered, requested *model.OwnershipRecord, err error) {
	ids := []int64{p.OfferedRecordID, p.RequestedRecordID}
	if ids[0] > ids[1] {
		ids[0], ids[1] = ids[1], ids[0]
	}
	locked := make(map[int64]*model.OwnershipRecord, 2)
	for _, id := range ids {
		rec, err := tx.GetOwnership(ctx, id)
		if errors.Is(err, model.ErrRecordNotFound) {
			return nil, nil, model.ErrStaleProposal
		}
		if err != nil {
			return nil, nil, err
		}
		locked[id] = rec
	}
	return locked[p.OfferedRecordID], locked[p.RequestedRecordID], nil
}

func swapped(accountID string, itemID int, at time.Time) model.OwnershipRecord {
	return model.OwnershipRecord{
		AccountID:  accountID,
		ItemID:     itemID,
		Duplicate:  false,
		Source:     model.SourceTrade,
		AcquiredAt: at,
		Color:      model.DefaultColor,
	}
}
