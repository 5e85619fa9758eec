package rewards

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorvault/internal/catalog"
	"motorvault/internal/clock"
	"motorvault/internal/ledger"
	"motorvault/internal/model"
	"motorvault/internal/registry"
	"motorvault/internal/repository"
)

const testCatalog = `
items:
  - {id: 1, name: Rare, price: 500, cap: 1, pool: drop}
  - {id: 2, name: Common, price: 100, cap: 100, pool: drop}
  - {id: 10, name: Hyper, price: 1000, cap: 10, pool: luck, category: hypercars}
  - {id: 11, name: Racer, price: 800, cap: 10, pool: luck, category: racing}
  - {id: 20, name: Starter, price: 40, cap: 100, pool: new_client}
promos:
  - {code: test, reward: 1200}
  - {code: BetaTest, drop_cooldown_bypass: true}
`

// seqRand returns the queued indexes in order, then repeats the last one.
type seqRand struct {
	seq []int
}

func (r *seqRand) IntN(n int) int {
	v := r.seq[0]
	if len(r.seq) > 1 {
		r.seq = r.seq[1:]
	}
	return v % n
}

type fixture struct {
	ctx      context.Context
	store    *repository.MemoryStore
	clock    *clock.Fake
	rand     *seqRand
	selector *Selector
}

func newFixture(t *testing.T, accounts ...string) *fixture {
	t.Helper()
	cat, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)

	f := &fixture{
		ctx:   context.Background(),
		store: repository.NewMemoryStore(),
		clock: clock.NewFake(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)),
		rand:  &seqRand{seq: []int{0}},
	}
	l := ledger.New(cat, f.clock)
	reg := registry.New(cat, l, f.clock)
	f.selector = NewSelector(DefaultConfig(), cat, reg, l, f.clock, WithRand(f.rand))

	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		for _, id := range accounts {
			require.NoError(t, tx.EnsureAccount(f.ctx, id, "", ""))
		}
		return nil
	}))
	return f
}

func (f *fixture) claim(accountID string, channel model.Channel, category string) (*Claim, error) {
	var c *Claim
	err := f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		c, err = f.selector.Claim(f.ctx, tx, accountID, channel, category)
		return err
	})
	return c, err
}

func (f *fixture) account(t *testing.T, id string) *model.Account {
	t.Helper()
	var a *model.Account
	require.NoError(t, f.store.WithTx(f.ctx, func(tx repository.Tx) error {
		var err error
		a, err = tx.GetAccount(f.ctx, id)
		return err
	}))
	return a
}

func TestClaimDrop_CreditsAndStartsCooldown(t *testing.T) {
	f := newFixture(t, "a")
	f.rand.seq = []int{1}

	c, err := f.claim("a", model.ChannelDrop, "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Item.ID)
	assert.Equal(t, model.SourceDrop, c.Record.Source)
	assert.Equal(t, int64(100), c.Credited)
	assert.Equal(t, int64(100), c.Balance)

	f.clock.Advance(29 * time.Minute)
	_, err = f.claim("a", model.ChannelDrop, "")
	assert.ErrorIs(t, err, model.ErrCooldownActive)
	var cd *model.CooldownError
	require.ErrorAs(t, err, &cd)
	assert.Equal(t, time.Minute, cd.Remaining)

	f.clock.Advance(time.Minute)
	c, err = f.claim("a", model.ChannelDrop, "")
	require.NoError(t, err)
	assert.True(t, c.Record.Duplicate)
}

func TestClaimDrop_RedrawsPastCappedItems(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.rand.seq = []int{0}
	_, err := f.claim("a", model.ChannelDrop, "")
	require.NoError(t, err)

	// Item 1 is now at cap: two capped draws, then the common item.
	f.rand.seq = []int{0, 0, 1}
	c, err := f.claim("b", model.ChannelDrop, "")
	require.NoError(t, err)
	assert.Equal(t, 2, c.Item.ID)
}

func TestClaim_PoolExhaustedKeepsCooldown(t *testing.T) {
	f := newFixture(t, "a", "b")
	f.rand.seq = []int{0}
	_, err := f.claim("a", model.ChannelDrop, "")
	require.NoError(t, err)

	// Every draw hits the capped item.
	f.rand.seq = []int{0}
	_, err = f.claim("b", model.ChannelDrop, "")
	assert.ErrorIs(t, err, model.ErrPoolExhausted)

	b := f.account(t, "b")
	assert.NotContains(t, b.Cooldowns, model.ChannelDrop)
	assert.Zero(t, b.Balance)

	f.rand.seq = []int{1}
	_, err = f.claim("b", model.ChannelDrop, "")
	assert.NoError(t, err)
}

func TestClaimLuck(t *testing.T) {
	f := newFixture(t, "a")

	c, err := f.claim("a", model.ChannelLuck, "racing")
	require.NoError(t, err)
	assert.Equal(t, 11, c.Item.ID)
	assert.Equal(t, model.SourceLuck, c.Record.Source)

	_, err = f.claim("a", model.ChannelLuck, "racing")
	assert.ErrorIs(t, err, model.ErrCooldownActive)

	f.clock.Advance(24 * time.Hour)
	_, err = f.claim("a", model.ChannelLuck, "racing")
	assert.ErrorIs(t, err, model.ErrDuplicateNotAllowed)

	// The rejected draw consumed neither capacity nor the cooldown.
	a := f.account(t, "a")
	assert.Equal(t, f.clock.Now().Add(-24*time.Hour), a.Cooldowns[model.ChannelLuck])
	assert.Equal(t, int64(800), a.Balance)

	_, err = f.claim("a", model.ChannelLuck, "concepts")
	assert.ErrorIs(t, err, model.ErrPoolExhausted)
}

func TestClaimNewClient_SingleUse(t *testing.T) {
	f := newFixture(t, "a")

	c, err := f.claim("a", model.ChannelNewClient, "")
	require.NoError(t, err)
	assert.Equal(t, 20, c.Item.ID)
	assert.Equal(t, model.SourceNewClient, c.Record.Source)

	_, err = f.claim("a", model.ChannelNewClient, "")
	assert.ErrorIs(t, err, model.ErrAlreadyRedeemed)

	assert.True(t, f.account(t, "a").HasRedeemed(model.RewardNewClient))
}

func TestRedeemPromo(t *testing.T) {
	f := newFixture(t, "a")
	redeem := func(code string) (*PromoResult, error) {
		var res *PromoResult
		err := f.store.WithTx(f.ctx, func(tx repository.Tx) error {
			var err error
			res, err = f.selector.RedeemPromo(f.ctx, tx, "a", code)
			return err
		})
		return res, err
	}

	res, err := redeem("test")
	require.NoError(t, err)
	assert.Equal(t, int64(1200), res.Balance)

	_, err = redeem("test")
	assert.ErrorIs(t, err, model.ErrAlreadyRedeemed)

	_, err = redeem("nope")
	assert.ErrorIs(t, err, model.ErrUnknownPromo)

	_, err = redeem("BetaTest")
	require.NoError(t, err)
	assert.True(t, f.account(t, "a").DropCooldownBypass)

	f.rand.seq = []int{1}
	_, err = f.claim("a", model.ChannelDrop, "")
	require.NoError(t, err)
	_, err = f.claim("a", model.ChannelDrop, "")
	assert.NoError(t, err)
}
