package model

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"sentinel", ErrCapacityExhausted, "capacity_exhausted"},
		{"wrapped", fmt.Errorf("acquire 7: %w", ErrInsufficientFunds), "insufficient_funds"},
		{"cooldown error", &CooldownError{Channel: ChannelDrop, Remaining: time.Minute}, "cooldown_active"},
		{"infrastructure", errors.New("connection refused"), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Code(tt.err))
			assert.Equal(t, tt.want != "", IsDomainError(tt.err))
		})
	}
}

func TestCooldownError(t *testing.T) {
	err := error(&CooldownError{Channel: ChannelLuck, Remaining: 90*time.Minute + 400*time.Millisecond})
	assert.ErrorIs(t, err, ErrCooldownActive)
	assert.Equal(t, "luck cooldown active for 1h30m0s", err.Error())

	var cd *CooldownError
	assert.True(t, errors.As(err, &cd))
	assert.Equal(t, ChannelLuck, cd.Channel)
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(fmt.Errorf("x: %w", ErrProposalNotFound)))
	assert.False(t, IsNotFound(ErrStaleProposal))
}

func TestAccountClone(t *testing.T) {
	now := time.Now()
	a := &Account{
		ID:        "1",
		Cooldowns: map[Channel]time.Time{ChannelDrop: now},
		Redeemed:  map[string]time.Time{RewardNewClient: now},
	}
	c := a.Clone()
	c.Cooldowns[ChannelLuck] = now
	c.Redeemed["promo:x"] = now

	assert.Len(t, a.Cooldowns, 1)
	assert.Len(t, a.Redeemed, 1)
	assert.True(t, c.HasRedeemed(RewardNewClient))
}
