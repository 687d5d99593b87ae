package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"frontend/internal/config"
	"frontend/internal/format"
)

// Sale describes a completed purchase for the seller's channel.
type Sale struct {
	TxID     string
	CID      string
	Title    string
	Buyer    string
	Seller   string
	Amount   float64
	Currency string
}

// Notifier announces marketplace events. Implementations log delivery
// failures and never fail the caller's request.
type Notifier interface {
	SaleCompleted(ctx context.Context, sale Sale)
}

// NopNotifier drops every event.
type NopNotifier struct{}

func (NopNotifier) SaleCompleted(context.Context, Sale) {}

// FormatSaleMessage renders the text sent for a sale.
func FormatSaleMessage(sale Sale) string {
	title := sale.Title
	if title == "" {
		title = "Untitled dataset"
	}
	currency := sale.Currency
	if currency == "" {
		currency = "MATIC"
	}
	return fmt.Sprintf(
		"💰 Dataset sold\n\n"+
			"📦 %s\n"+
			"🔗 CID: %s\n"+
			"👤 Buyer: %s\n"+
			"💵 Amount: %s %s\n"+
			"🧾 Transaction: %s",
		format.Truncate(title, 80),
		sale.CID,
		format.Address(sale.Buyer),
		format.Number(sale.Amount),
		currency,
		sale.TxID,
	)
}

type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts sale messages to one Telegram chat.
type TelegramNotifier struct {
	api    sender
	chatID int64
	logger *zap.Logger
}

// NewTelegramNotifier authorizes the bot token against the Bot API.
func NewTelegramNotifier(token string, chatID int64, logger *zap.Logger) (*TelegramNotifier, error) {
	botAPI, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot API: %w", err)
	}
	logger.Info("Telegram bot authorized", zap.String("username", botAPI.Self.UserName))
	return newTelegramNotifier(botAPI, chatID, logger), nil
}

func newTelegramNotifier(api sender, chatID int64, logger *zap.Logger) *TelegramNotifier {
	return &TelegramNotifier{api: api, chatID: chatID, logger: logger}
}

// SaleCompleted sends the sale message and returns once it is delivered or
// ctx is done. A send still in flight at that point finishes in the
// background and only its failure is logged.
func (n *TelegramNotifier) SaleCompleted(ctx context.Context, sale Sale) {
	if ctx.Err() != nil {
		return
	}
	msg := tgbotapi.NewMessage(n.chatID, FormatSaleMessage(sale))

	done := make(chan error, 1)
	go func() {
		_, err := n.api.Send(msg)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			n.logSendError(sale, err)
			return
		}
		n.logger.Info("Sale notification sent", zap.String("tx_id", sale.TxID))
	case <-ctx.Done():
		n.logger.Warn("Sale notification still pending, not waiting", zap.String("tx_id", sale.TxID), zap.Error(ctx.Err()))
		go func() {
			if err := <-done; err != nil {
				n.logSendError(sale, err)
			}
		}()
	}
}

func (n *TelegramNotifier) logSendError(sale Sale, err error) {
	n.logger.Error("Failed to send sale notification",
		zap.Int64("chat_id", n.chatID),
		zap.String("tx_id", sale.TxID),
		zap.Error(err),
	)
}

// NewFromConfig returns a Telegram notifier when notifications are enabled
// and configured, otherwise a NopNotifier. A bot that fails to authorize is
// logged and replaced by a NopNotifier.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) Notifier {
	tg := cfg.Notifications.Telegram
	if !tg.Enabled || tg.BotToken == "" || tg.ChatID == 0 {
		logger.Info("Telegram notifications are disabled (notifications.telegram.enabled=false, token or chat id empty)")
		return NopNotifier{}
	}
	n, err := NewTelegramNotifier(tg.BotToken, tg.ChatID, logger)
	if err != nil {
		logger.Error("Telegram notifications unavailable", zap.Error(err))
		return NopNotifier{}
	}
	return n
}
