package notify

import (
	"context"

	"go.uber.org/zap"

	"motorvault/internal/logger"
)

// NoticeKind classifies an outbound notice.
type NoticeKind string

const (
	NoticeTradeProposed NoticeKind = "trade_proposed"
	NoticeTradeAdvisory NoticeKind = "trade_advisory"
	NoticeTradeAccepted NoticeKind = "trade_accepted"
	NoticeTradeRejected NoticeKind = "trade_rejected"
)

// Action is a follow-up command the recipient may send back.
type Action struct {
	Label   string `json:"label"`
	Command string `json:"command"`
}

// Notice is a message delivered to one account over the messaging channel.
type Notice struct {
	Kind       NoticeKind `json:"kind"`
	Text       string     `json:"text"`
	ProposalID string     `json:"proposal_id,omitempty"`
	Actions    []Action   `json:"actions,omitempty"`
}

// Notifier delivers notices to accounts.
type Notifier interface {
	Notify(ctx context.Context, accountID string, n Notice) error
}

// LogNotifier writes notices to the log. It stands in when no broker is
// configured.
type LogNotifier struct{}

func (LogNotifier) Notify(ctx context.Context, accountID string, n Notice) error {
	logger.InfoCtx(ctx, "notice",
		zap.String("account_id", accountID),
		zap.String("kind", string(n.Kind)),
		zap.String("proposal_id", n.ProposalID),
		zap.String("text", n.Text),
	)
	return nil
}
