package notify

import (
	"context"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"motorvault/internal/logger"
)

const (
	defaultPoolSize  = 8
	defaultQueueSize = 1024
)

// Dispatcher delivers notices on a worker pool so that callers never wait on
// the messaging channel. Delivery failures are logged and dropped, and so are
// notices submitted while the queue is full.
type Dispatcher struct {
	next Notifier
	pool pond.Pool
}

func NewDispatcher(next Notifier, poolSize, queueSize int) *Dispatcher {
	if poolSize <= 0 {
		poolSize = defaultPoolSize
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Dispatcher{
		next: next,
		pool: pond.NewPool(poolSize, pond.WithQueueSize(queueSize), pond.WithNonBlocking(true)),
	}
}

// Notify queues the notice and returns immediately. The request context is
// not carried into delivery, which may outlive it.
func (d *Dispatcher) Notify(ctx context.Context, accountID string, n Notice) error {
	fields := []zap.Field{
		zap.String("account_id", accountID),
		zap.String("kind", string(n.Kind)),
	}
	_, ok := d.pool.TrySubmitErr(func() error {
		if err := d.next.Notify(context.WithoutCancel(ctx), accountID, n); err != nil {
			logger.Warn("notice delivery failed", append(fields, zap.Error(err))...)
			return err
		}
		return nil
	})
	if !ok {
		logger.WarnCtx(ctx, "notice dropped, delivery queue is full", fields...)
	}
	return nil
}

// Stop waits for queued notices to be delivered.
func (d *Dispatcher) Stop() {
	logger.Info("Stopping notice dispatcher",
		zap.Uint64("waiting", d.pool.WaitingTasks()),
		zap.Uint64("failed", d.pool.FailedTasks()),
		zap.Uint64("dropped", d.pool.DroppedTasks()),
	)
	d.pool.StopAndWait()
}
