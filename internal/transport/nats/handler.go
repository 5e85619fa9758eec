package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"

	"motorvault/internal/command"
	"motorvault/internal/logger"
	"motorvault/internal/model"
)

// Dispatcher runs a decoded command.
type Dispatcher interface {
	Dispatch(ctx context.Context, cmd command.Command) (any, error)
}

const (
	defaultWorkers   = 16
	defaultQueueSize = 256
	drainPoll        = 50 * time.Millisecond
	drainTimeout     = 10 * time.Second
)

// Handler consumes commands published on <prefix>.<kind>. The subject names
// the kind; the payload is a JSON command.Command. When the sender asked for
// a reply it receives a command.Reply.
//
// Commands run on a worker pool: the subscription callback only queues them,
// so a command waiting on a row lock does not hold up the ones behind it.
// A full queue blocks the callback and leaves messages pending in NATS.
type Handler struct {
	dispatcher Dispatcher
	nc         *nats.Conn
	prefix     string
	queueGroup string
	pool       pond.Pool
}

func NewHandler(dispatcher Dispatcher, nc *nats.Conn, prefix, queueGroup string, workers, queueSize int) *Handler {
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	return &Handler{
		dispatcher: dispatcher,
		nc:         nc,
		prefix:     prefix,
		queueGroup: queueGroup,
		pool:       pond.NewPool(workers, pond.WithQueueSize(queueSize)),
	}
}

// Start subscribes to command subjects and blocks until ctx is cancelled.
// It then drains the subscription and waits for queued commands to finish.
func (h *Handler) Start(ctx context.Context) error {
	sub, err := h.nc.QueueSubscribe(h.prefix+".>", h.queueGroup, h.onMsg(ctx))
	if err != nil {
		return fmt.Errorf("failed to subscribe to commands: %w", err)
	}

	logger.InfoCtx(ctx, "NATS command handler is running", zap.String("subject", h.prefix+".>"))

	<-ctx.Done()
	logger.Info("NATS command handler shutting down, draining subscription")
	err = sub.Drain()
	deadline := time.Now().Add(drainTimeout)
	for err == nil && sub.IsValid() && time.Now().Before(deadline) {
		time.Sleep(drainPoll)
	}

	logger.Info("Waiting for queued commands",
		zap.Uint64("waiting", h.pool.WaitingTasks()),
		zap.Int64("running", h.pool.RunningWorkers()),
	)
	h.pool.StopAndWait()
	return err
}

func (h *Handler) Stop(ctx context.Context) error {
	return nil
}

// onMsg returns the subscription callback. Commands delivered while the
// subscription drains still complete, so their work does not inherit the
// cancellation of ctx.
func (h *Handler) onMsg(ctx context.Context) nats.MsgHandler {
	work := context.WithoutCancel(ctx)
	return func(m *nats.Msg) {
		h.pool.Submit(func() { h.process(work, m) })
	}
}

func (h *Handler) process(ctx context.Context, m *nats.Msg) {
	reply := h.handle(ctx, m.Subject, m.Data)
	if m.Reply == "" {
		return
	}
	data, err := json.Marshal(reply)
	if err != nil {
		logger.ErrorCtx(ctx, fmt.Errorf("failed to encode reply: %w", err), zap.String("subject", m.Subject))
		return
	}
	if err := m.Respond(data); err != nil {
		logger.WarnCtx(ctx, "failed to respond to command", zap.String("subject", m.Subject), zap.Error(err))
	}
}

func (h *Handler) handle(ctx context.Context, subject string, data []byte) command.Reply {
	kind, err := command.ParseKind(strings.TrimPrefix(subject, h.prefix+"."))
	if err != nil {
		return command.NewReply(nil, err)
	}

	var cmd command.Command
	if len(data) > 0 {
		if err := json.Unmarshal(data, &cmd); err != nil {
			return command.NewReply(nil, fmt.Errorf("%w: %v", model.ErrInvalidCommand, err))
		}
	}
	cmd.Kind = kind

	res, err := h.dispatcher.Dispatch(ctx, cmd)
	return command.NewReply(res, err)
}
