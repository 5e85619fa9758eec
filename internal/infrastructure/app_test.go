package infrastructure

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"motorvault/internal/config"
)

type fakeServer struct {
	startErr error
	stopped  atomic.Bool
}

func (s *fakeServer) Start(ctx context.Context) error {
	if s.startErr != nil {
		return s.startErr
	}
	<-ctx.Done()
	return nil
}

func (s *fakeServer) Stop(context.Context) error {
	s.stopped.Store(true)
	return nil
}

func TestApp_StopsEveryServerOnCancel(t *testing.T) {
	a, b := &fakeServer{}, &fakeServer{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- NewApp([]Server{a, b}).Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("app did not stop")
	}
	assert.True(t, a.stopped.Load())
	assert.True(t, b.stopped.Load())
}

func TestApp_FailingServerStopsTheRest(t *testing.T) {
	boom := errors.New("listen: address in use")
	healthy := &fakeServer{}

	err := NewApp([]Server{healthy, &fakeServer{startErr: boom}}).Run(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.True(t, healthy.stopped.Load())
}

func memoryConfig() *config.Config {
	return &config.Config{
		Store:     config.StoreConfig{Provider: config.ProviderMemory},
		Proposals: config.ProposalsConfig{Provider: config.ProviderMemory},
		API:       config.APIConfig{Enabled: true, Port: 0, AdminToken: "t"},
		Rewards:   config.RewardsConfig{DropCooldown: time.Minute, LuckCooldown: time.Hour, MaxDraws: 3},
		Trade:     config.TradeConfig{AdvisoryAfter: time.Minute},
	}
}

func TestBootstrap_Memory(t *testing.T) {
	app, cleanup, err := Bootstrap(context.Background(), memoryConfig())
	require.NoError(t, err)
	require.NotNil(t, cleanup)
	defer cleanup()
	assert.Len(t, app.servers, 1)
}

func TestBootstrap_Errors(t *testing.T) {
	cfg := memoryConfig()
	cfg.API.Enabled = false
	_, _, err := Bootstrap(context.Background(), cfg)
	assert.ErrorContains(t, err, "no transport enabled")

	cfg = memoryConfig()
	cfg.Store.Provider = "cassandra"
	_, _, err = Bootstrap(context.Background(), cfg)
	assert.ErrorContains(t, err, "unknown store provider")

	cfg = memoryConfig()
	cfg.CatalogPath = "/nonexistent/catalog.yaml"
	_, _, err = Bootstrap(context.Background(), cfg)
	assert.Error(t, err)
}
