// Package notify turns NFT transfer events into human-readable messages
// and delivers them.
package notify

import (
	"context"
	"fmt"

	"github.com/go-telegram/bot"

	"github.com/iliyamo/nft-bank-marketplace/internal/logger"
	"github.com/iliyamo/nft-bank-marketplace/internal/queue"
)

// Notifier delivers a rendered message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// TelegramNotifier posts every message to one configured chat.
type TelegramNotifier struct {
	logger *logger.Logger
	bot    *bot.Bot
	chatID string
}

func NewTelegramNotifier(log *logger.Logger, token, chatID string) (*TelegramNotifier, error) {
	b, err := bot.New(token, bot.WithSkipGetMe())
	if err != nil {
		return nil, err
	}
	return &TelegramNotifier{logger: log, bot: b, chatID: chatID}, nil
}

func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	if err != nil {
		t.logger.Error("Failed to send notification: ", err)
	}
	return err
}

// LogNotifier writes messages to the service log.  It is used when no
// Telegram bot is configured.
type LogNotifier struct {
	Log *logger.Logger
}

func (l LogNotifier) Notify(_ context.Context, text string) error {
	l.Log.Infow("nft transfer", "message", text)
	return nil
}

// TransferMessage renders a transfer event.
func TransferMessage(ev queue.NFTTransferredEvent) string {
	name := ev.Name
	if name == "" {
		name = fmt.Sprintf("NFT #%d", ev.NFTID)
	}
	switch ev.TransferType {
	case "gift":
		return fmt.Sprintf("%s gifted %s to %s", ev.FromUsername, name, ev.ToUsername)
	default:
		return fmt.Sprintf("%s bought %s from %s for $%s", ev.ToUsername, name, ev.FromUsername, ev.Price)
	}
}

// Handler adapts a Notifier to the queue consumer.
func Handler(n Notifier) queue.HandlerFunc {
	return func(ctx context.Context, ev queue.NFTTransferredEvent) error {
		return n.Notify(ctx, TransferMessage(ev))
	}
}
