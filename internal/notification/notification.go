package notification

import (
	"context"
	"log/slog"
)

const (
	// KindWalletLinked indicates a wallet address was bound to a user.
	KindWalletLinked = "wallet_linked"
	// KindWalletUnlinked indicates a wallet binding was cleared.
	KindWalletUnlinked = "wallet_unlinked"
)

// Message describes a notification payload.
type Message struct {
	Kind          string
	UserID        string
	WalletAddress string
}

// Notifier delivers notifications to downstream systems.
type Notifier interface {
	Send(ctx context.Context, message Message) error
}

// LoggerNotifier is a stub implementation that writes notifications to the logger.
type LoggerNotifier struct {
	logger *slog.Logger
}

// NewLoggerNotifier constructs a logging notifier stub.
func NewLoggerNotifier(logger *slog.Logger) *LoggerNotifier {
	return &LoggerNotifier{logger: logger}
}

// Send writes the message to the structured logger.
func (n *LoggerNotifier) Send(_ context.Context, message Message) error {
	if n == nil || n.logger == nil {
		return nil
	}
	n.logger.Info("notification", "kind", message.Kind, "user_id", message.UserID, "wallet_address", message.WalletAddress)
	return nil
}
