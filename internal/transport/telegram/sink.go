// Package telegram delivers fired reminders to a Telegram chat.
package telegram

import (
	"context"
	"errors"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"dayplan/internal/notify"
	"dayplan/pkg/logx"
)

type Config struct {
	Token  string `json:"token"`
	ChatID int64  `json:"chat_id"`
}

// Sink sends each reminder as a plain text message to the configured
// chat. It implements notify.Sink.
type Sink struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Sink, error) {
	if strings.TrimSpace(cfg.Token) == "" {
		return nil, errors.New("telegram token is empty")
	}
	if cfg.ChatID == 0 {
		return nil, errors.New("telegram chat_id is required")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	b, err := tele.NewBot(tele.Settings{Token: cfg.Token})
	if err != nil {
		return nil, err
	}
	return &Sink{cfg: cfg, log: log, bot: b}, nil
}

func (s *Sink) Deliver(ctx context.Context, p notify.Payload) error {
	text := p.Title
	if p.Message != "" {
		text = p.Title + "\n" + p.Message
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := s.bot.Send(tele.ChatID(s.cfg.ChatID), text)
		done <- err
	}()

	if ctx == nil {
		ctx = context.Background()
	}
	select {
	case err := <-done:
		if err != nil {
			s.log.Warn("telegram send failed", logx.Err(err))
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(15 * time.Second):
		return errors.New("telegram send timed out")
	}
}
