package notify

import (
	"context"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// messageSender is the part of *telego.Bot the sink needs
type messageSender interface {
	SendMessage(ctx context.Context, params *telego.SendMessageParams) (*telego.Message, error)
}

// TelegramSink forwards admin events to an admin chat
type TelegramSink struct {
	bot    messageSender
	chatID int64
}

// NewTelegramSink creates a bot for token and targets chatID
func NewTelegramSink(token string, chatID int64) (*TelegramSink, error) {
	bot, err := telego.NewBot(token)
	if err != nil {
		return nil, err
	}
	return &TelegramSink{bot: bot, chatID: chatID}, nil
}

func (s *TelegramSink) Name() string { return "telegram" }

func (s *TelegramSink) Accepts(e Event) bool { return e.Admin }

func (s *TelegramSink) Deliver(ctx context.Context, e Event) error {
	_, err := s.bot.SendMessage(ctx, tu.Message(tu.ID(s.chatID), e.Text()))
	return err
}
