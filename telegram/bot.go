package telegram

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var ErrNotification = errors.New("failed to dispatch notification")

// Bot dispatches messages to one configured channel. Every send is a
// single attempt; delivery is best-effort by design.
type Bot struct {
	api       *tgbotapi.BotAPI
	chat      tgbotapi.BaseChat
	parseMode string
}

// NewBot builds the client without the library's getMe round trip so
// construction needs no network. The channel id must be an @username
// or a numeric chat id.
func NewBot(token, channelID, parseMode string) (*Bot, error) {
	chat, err := resolveChat(channelID)
	if err != nil {
		return nil, err
	}

	api := &tgbotapi.BotAPI{
		Token:  token,
		Client: &http.Client{Timeout: 30 * time.Second},
		Buffer: 100,
	}
	api.SetAPIEndpoint(tgbotapi.APIEndpoint)

	return &Bot{
		api:       api,
		chat:      chat,
		parseMode: parseMode,
	}, nil
}

// SetAPIEndpoint overrides the bot API endpoint (tests point this at a
// local server). The format needs the two %s verbs of the real one.
func (b *Bot) SetAPIEndpoint(endpoint string) {
	b.api.SetAPIEndpoint(endpoint)
}

// resolveChat resolves the configured channel: @username channels and
// numeric chat ids are both accepted, anything else is a
// configuration error.
func resolveChat(channelID string) (tgbotapi.BaseChat, error) {
	if strings.HasPrefix(channelID, "@") {
		return tgbotapi.BaseChat{ChannelUsername: channelID}, nil
	}
	chatID, err := strconv.ParseInt(channelID, 10, 64)
	if err != nil {
		return tgbotapi.BaseChat{}, fmt.Errorf("invalid telegram channel id %q: %v", channelID, err)
	}
	return tgbotapi.BaseChat{ChatID: chatID}, nil
}

// SendMessage dispatches formatted text.
func (b *Bot) SendMessage(text string) error {
	msg := tgbotapi.MessageConfig{
		BaseChat:  b.chat,
		Text:      text,
		ParseMode: b.parseMode,
	}

	if _, err := b.api.Request(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	return nil
}

// SendPhoto dispatches a PNG with a formatted caption.
func (b *Bot) SendPhoto(photo []byte, caption string) error {
	msg := tgbotapi.PhotoConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: b.chat,
			File:     tgbotapi.FileBytes{Name: "qrcode.png", Bytes: photo},
		},
		Caption:   caption,
		ParseMode: b.parseMode,
	}

	if _, err := b.api.Request(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	return nil
}

// SendDocument dispatches a file attachment with a formatted caption.
func (b *Bot) SendDocument(document []byte, fileName, caption string) error {
	msg := tgbotapi.DocumentConfig{
		BaseFile: tgbotapi.BaseFile{
			BaseChat: b.chat,
			File:     tgbotapi.FileBytes{Name: fileName, Bytes: document},
		},
		Caption:   caption,
		ParseMode: b.parseMode,
	}

	if _, err := b.api.Request(msg); err != nil {
		return fmt.Errorf("%w: %v", ErrNotification, err)
	}
	return nil
}
