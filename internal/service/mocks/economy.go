// Package mocks provides testify mocks of the service interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"motorvault/internal/model"
	"motorvault/internal/rewards"
	"motorvault/internal/service"
	"motorvault/internal/trade"
)

type EconomyService struct {
	mock.Mock
}

var _ service.EconomyService = (*EconomyService)(nil)

// ptr returns the typed first return value, tolerating nil.
func ptr[T any](args mock.Arguments) *T {
	v, _ := args.Get(0).(*T)
	return v
}

func (m *EconomyService) EnsureAccount(ctx context.Context, id, handle, displayName string) error {
	return m.Called(ctx, id, handle, displayName).Error(0)
}

func (m *EconomyService) Balance(ctx context.Context, accountID string) (*model.Account, error) {
	args := m.Called(ctx, accountID)
	return ptr[model.Account](args), args.Error(1)
}

func (m *EconomyService) Holdings(ctx context.Context, accountID string) (*service.Holdings, error) {
	args := m.Called(ctx, accountID)
	return ptr[service.Holdings](args), args.Error(1)
}

func (m *EconomyService) SetCurrency(ctx context.Context, accountID string, currency model.Currency) error {
	return m.Called(ctx, accountID, currency).Error(0)
}

func (m *EconomyService) Leaderboard(ctx context.Context, limit int) ([]model.Account, error) {
	args := m.Called(ctx, limit)
	v, _ := args.Get(0).([]model.Account)
	return v, args.Error(1)
}

func (m *EconomyService) Menu() *service.Menu {
	return ptr[service.Menu](m.Called())
}

func (m *EconomyService) Purchase(ctx context.Context, accountID string, itemID int) (*model.OwnershipRecord, error) {
	args := m.Called(ctx, accountID, itemID)
	return ptr[model.OwnershipRecord](args), args.Error(1)
}

func (m *EconomyService) Claim(ctx context.Context, accountID string, channel model.Channel, category string) (*rewards.Claim, error) {
	args := m.Called(ctx, accountID, channel, category)
	return ptr[rewards.Claim](args), args.Error(1)
}

func (m *EconomyService) RedeemPromo(ctx context.Context, accountID, code string) (*rewards.PromoResult, error) {
	args := m.Called(ctx, accountID, code)
	return ptr[rewards.PromoResult](args), args.Error(1)
}

func (m *EconomyService) BuyProperty(ctx context.Context, accountID, assetID string) (*model.PropertyHolding, error) {
	args := m.Called(ctx, accountID, assetID)
	return ptr[model.PropertyHolding](args), args.Error(1)
}

func (m *EconomyService) Paint(ctx context.Context, accountID string, recordID int64, color string) (*model.OwnershipRecord, error) {
	args := m.Called(ctx, accountID, recordID, color)
	return ptr[model.OwnershipRecord](args), args.Error(1)
}

func (m *EconomyService) TradeBegin(ctx context.Context, accountID string, recordID int64) (*model.OwnershipRecord, error) {
	args := m.Called(ctx, accountID, recordID)
	return ptr[model.OwnershipRecord](args), args.Error(1)
}

func (m *EconomyService) TradePartner(ctx context.Context, accountID, partner string) (*trade.Partner, error) {
	args := m.Called(ctx, accountID, partner)
	return ptr[trade.Partner](args), args.Error(1)
}

func (m *EconomyService) TradePropose(ctx context.Context, accountID string, recordID int64) (*model.TradeProposal, error) {
	args := m.Called(ctx, accountID, recordID)
	return ptr[model.TradeProposal](args), args.Error(1)
}

func (m *EconomyService) TradeAccept(ctx context.Context, accountID, proposalID string) (*model.TradeResult, error) {
	args := m.Called(ctx, accountID, proposalID)
	return ptr[model.TradeResult](args), args.Error(1)
}

func (m *EconomyService) TradeReject(ctx context.Context, accountID, proposalID string) (*model.TradeProposal, error) {
	args := m.Called(ctx, accountID, proposalID)
	return ptr[model.TradeProposal](args), args.Error(1)
}

func (m *EconomyService) TradeCancel(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *EconomyService) AdminGrantBalance(ctx context.Context, accountID string, amount int64) (int64, error) {
	args := m.Called(ctx, accountID, amount)
	v, _ := args.Get(0).(int64)
	return v, args.Error(1)
}

func (m *EconomyService) AdminGrantItem(ctx context.Context, accountID string, itemID int) (*model.OwnershipRecord, error) {
	args := m.Called(ctx, accountID, itemID)
	return ptr[model.OwnershipRecord](args), args.Error(1)
}

func (m *EconomyService) AdminWipe(ctx context.Context, accountID string) error {
	return m.Called(ctx, accountID).Error(0)
}

func (m *EconomyService) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
