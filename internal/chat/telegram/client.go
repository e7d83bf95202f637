// Package telegram implements the chat transport over the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/chat"
	"github.com/Nushautaz-Nabagaz/sol-meme-bot/internal/logger"
)

type Config struct {
	Token          string
	APIEndpoint    string
	PollTimeoutSec int
	PollInterval   time.Duration
	SendTimeout    time.Duration
}

type Client struct {
	bot          *tgbotapi.BotAPI
	sender       *tgbotapi.BotAPI
	log          *logger.Logger
	pollTimeout  int
	pollInterval time.Duration
	offset       int
	reconnectMin time.Duration
	reconnectMax time.Duration
}

var _ chat.Transport = (*Client)(nil)

// New connects to the Bot API (getMe) and returns a ready client.
func New(cfg Config, log *logger.Logger) (*Client, error) {
	endpoint := cfg.APIEndpoint
	if endpoint == "" {
		endpoint = tgbotapi.APIEndpoint
	}
	if cfg.PollTimeoutSec <= 0 {
		cfg.PollTimeoutSec = 30
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 2500 * time.Millisecond
	}
	if cfg.SendTimeout <= 0 {
		cfg.SendTimeout = 10 * time.Second
	}

	httpClient := &http.Client{
		Timeout: time.Duration(cfg.PollTimeoutSec)*time.Second + 15*time.Second,
	}
	bot, err := tgbotapi.NewBotAPIWithClient(cfg.Token, endpoint, httpClient)
	if err != nil {
		return nil, fmt.Errorf("Не удалось подключиться к Telegram: %w", err)
	}

	// tgbotapi ignores ctx, so sends get their own client bounded by SendTimeout.
	sender := &tgbotapi.BotAPI{
		Token:  cfg.Token,
		Self:   bot.Self,
		Buffer: bot.Buffer,
		Client: &http.Client{Timeout: cfg.SendTimeout},
	}
	sender.SetAPIEndpoint(endpoint)

	c := &Client{
		bot:          bot,
		sender:       sender,
		log:          log,
		pollTimeout:  cfg.PollTimeoutSec,
		pollInterval: cfg.PollInterval,
		reconnectMin: 1 * time.Second,
		reconnectMax: 30 * time.Second,
	}
	c.logEntry().WithField("bot", bot.Self.UserName).Info("Подключение к Telegram установлено.")
	return c, nil
}

func (c *Client) logEntry() *logrus.Entry {
	return c.log.WithComponent("telegram")
}

func (c *Client) Send(ctx context.Context, msg chat.Message) error {
	if err := ctx.Err(); err != nil {
		return &chat.TransportError{Op: "sendMessage", Err: err}
	}

	out := tgbotapi.NewMessage(msg.ChatID, msg.Text)
	out.ParseMode = tgbotapi.ModeMarkdown
	out.DisableWebPagePreview = true
	if len(msg.Buttons) > 0 {
		out.ReplyMarkup = keyboard(msg.Buttons)
	}

	if _, err := c.sender.Send(out); err != nil {
		return &chat.TransportError{Op: "sendMessage", Err: err}
	}
	return nil
}

func (c *Client) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := ctx.Err(); err != nil {
		return &chat.TransportError{Op: "answerCallbackQuery", Err: err}
	}
	if _, err := c.sender.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return &chat.TransportError{Op: "answerCallbackQuery", Err: err}
	}
	return nil
}

// Poll long-polls getUpdates and forwards decoded updates until ctx is done.
// It only does I/O; all handling happens on the receiving side of out.
func (c *Client) Poll(ctx context.Context, out chan<- chat.Update) {
	backoff := c.reconnectMin
	for {
		if ctx.Err() != nil {
			return
		}

		cfg := tgbotapi.NewUpdate(c.offset)
		cfg.Timeout = c.pollTimeout
		updates, err := c.bot.GetUpdates(cfg)
		if err != nil {
			c.logEntry().WithError(err).Warn("Не удалось получить обновления Telegram.")
			if !sleep(ctx, backoff) {
				return
			}
			backoff = c.nextBackoff(backoff)
			continue
		}
		backoff = c.reconnectMin

		for _, u := range updates {
			if u.UpdateID >= c.offset {
				c.offset = u.UpdateID + 1
			}
			upd, ok := convert(u)
			if !ok {
				continue
			}
			select {
			case <-ctx.Done():
				return
			case out <- upd:
			}
		}

		if !sleep(ctx, c.pollInterval) {
			return
		}
	}
}

func (c *Client) nextBackoff(current time.Duration) time.Duration {
	next := current * 2
	if next > c.reconnectMax {
		return c.reconnectMax
	}
	return next
}

func convert(u tgbotapi.Update) (chat.Update, bool) {
	switch {
	case u.Message != nil && u.Message.Chat != nil && u.Message.Text != "":
		return chat.Update{
			ID:     u.UpdateID,
			ChatID: u.Message.Chat.ID,
			Text:   strings.TrimSpace(u.Message.Text),
		}, true
	case u.CallbackQuery != nil && u.CallbackQuery.Data != "":
		var chatID int64
		if u.CallbackQuery.Message != nil && u.CallbackQuery.Message.Chat != nil {
			chatID = u.CallbackQuery.Message.Chat.ID
		}
		return chat.Update{
			ID:           u.UpdateID,
			ChatID:       chatID,
			CallbackID:   u.CallbackQuery.ID,
			CallbackData: u.CallbackQuery.Data,
		}, true
	default:
		return chat.Update{}, false
	}
}

func keyboard(rows [][]chat.Button) tgbotapi.InlineKeyboardMarkup {
	out := make([][]tgbotapi.InlineKeyboardButton, 0, len(rows))
	for _, row := range rows {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		out = append(out, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	return tgbotapi.NewInlineKeyboardMarkup(out...)
}

func sleep(ctx context.Context, d time.Duration) bool {
	select {
	case <-ctx.Done():
		return false
	case <-time.After(d):
		return true
	}
}
