package command

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"motorvault/internal/model"
	"motorvault/internal/rewards"
	"motorvault/internal/service/mocks"
)

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}

	_, err := ParseKind("sell_everything")
	assert.ErrorIs(t, err, model.ErrInvalidCommand)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		cmd     Command
		wantErr bool
	}{
		{"balance", Command{Kind: Balance, AccountID: "a"}, false},
		{"no account", Command{Kind: Balance}, true},
		{"unknown kind", Command{Kind: "fly", AccountID: "a"}, true},
		{"purchase without item", Command{Kind: Purchase, AccountID: "a"}, true},
		{"purchase", Command{Kind: Purchase, AccountID: "a", ItemID: 3}, false},
		{"paint without color", Command{Kind: Paint, AccountID: "a", RecordID: 1}, true},
		{"partner", Command{Kind: TradePartner, AccountID: "a", Partner: "@b"}, false},
		{"accept without id", Command{Kind: TradeAccept, AccountID: "a"}, true},
		{"luck without category", Command{Kind: ClaimLuck, AccountID: "a"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cmd.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidCommand)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDispatch_RoutesEveryKind(t *testing.T) {
	ctx := context.Background()
	svc := &mocks.EconomyService{}
	svc.On("EnsureAccount", ctx, "a", "al", "Al").Return(nil)

	svc.On("Claim", ctx, "a", model.ChannelDrop, "").Return(&rewards.Claim{}, nil).Once()
	svc.On("Claim", ctx, "a", model.ChannelLuck, "racing").Return(&rewards.Claim{}, nil).Once()
	svc.On("Claim", ctx, "a", model.ChannelNewClient, "").Return(&rewards.Claim{}, nil).Once()
	svc.On("Purchase", ctx, "a", 7).Return(&model.OwnershipRecord{}, nil)
	svc.On("BuyProperty", ctx, "a", "house_1").Return(&model.PropertyHolding{}, nil)
	svc.On("RedeemPromo", ctx, "a", "test").Return(&rewards.PromoResult{}, nil)
	svc.On("Paint", ctx, "a", int64(4), "Red").Return(&model.OwnershipRecord{}, nil)
	svc.On("SetCurrency", ctx, "a", model.CurrencyRUB).Return(nil)
	svc.On("Balance", ctx, "a").Return(&model.Account{}, nil)
	svc.On("Holdings", ctx, "a").Return(nil, nil)
	svc.On("TradeBegin", ctx, "a", int64(4)).Return(&model.OwnershipRecord{}, nil)
	svc.On("TradePartner", ctx, "a", "@b").Return(nil, nil)
	svc.On("TradePropose", ctx, "a", int64(9)).Return(&model.TradeProposal{}, nil)
	svc.On("TradeAccept", ctx, "a", "p1").Return(&model.TradeResult{}, nil)
	svc.On("TradeReject", ctx, "a", "p2").Return(&model.TradeProposal{}, nil)
	svc.On("TradeCancel", ctx, "a").Return(nil)

	args := map[Kind]Command{
		ClaimLuck:    {Category: "racing"},
		Purchase:     {ItemID: 7},
		BuyProperty:  {AssetID: "house_1"},
		RedeemPromo:  {Code: "test"},
		Paint:        {RecordID: 4, Color: "Red"},
		SetCurrency:  {Currency: model.CurrencyRUB},
		TradeBegin:   {RecordID: 4},
		TradePartner: {Partner: "@b"},
		TradePropose: {RecordID: 9},
		TradeAccept:  {ProposalID: "p1"},
		TradeReject:  {ProposalID: "p2"},
	}

	d := NewDispatcher(svc)
	for _, k := range Kinds {
		cmd := args[k]
		cmd.Kind, cmd.AccountID, cmd.Handle, cmd.DisplayName = k, "a", "al", "Al"
		_, err := d.Dispatch(ctx, cmd)
		assert.NoError(t, err, k)
	}
	svc.AssertExpectations(t)
	svc.AssertNumberOfCalls(t, "EnsureAccount", len(Kinds))
}

func TestDispatch_Errors(t *testing.T) {
	ctx := context.Background()
	svc := &mocks.EconomyService{}
	d := NewDispatcher(svc)

	_, err := d.Dispatch(ctx, Command{Kind: "nope", AccountID: "a"})
	assert.ErrorIs(t, err, model.ErrInvalidCommand)
	svc.AssertNotCalled(t, "EnsureAccount", mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	svc.On("EnsureAccount", ctx, "a", "", "").Return(nil)
	svc.On("Purchase", ctx, "a", 1).Return(nil, model.ErrInsufficientFunds)
	_, err = d.Dispatch(ctx, Command{Kind: Purchase, AccountID: "a", ItemID: 1})
	assert.ErrorIs(t, err, model.ErrInsufficientFunds)
}

func TestReply(t *testing.T) {
	ok := NewReply(map[string]int{"n": 1}, nil)
	assert.True(t, ok.OK)
	assert.Nil(t, ok.Error)

	domain := NewReply(nil, &model.CooldownError{Channel: model.ChannelDrop})
	require.NotNil(t, domain.Error)
	assert.Equal(t, "cooldown_active", domain.Error.Code)

	internal := NewReply(nil, errors.New("connection refused"))
	assert.Equal(t, CodeInternal, internal.Error.Code)
	assert.NotContains(t, internal.Error.Message, "refused")
}
