package bot

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// ErrDelivery marks a failed outbound Telegram call.
var ErrDelivery = errors.New("bot: telegram delivery failed")

const notModified = "message is not modified"

// TelegramClient is the tgbotapi-backed Messenger, ChatMemberFetcher and UpdateSource.
type TelegramClient struct {
	api     *tgbotapi.BotAPI
	limiter *rate.Limiter
}

// NewTelegramClient authorizes the token and limits outbound calls to perSecond.
func NewTelegramClient(token string, perSecond float64, log *zap.Logger) (*TelegramClient, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	api.Debug = false
	if log != nil {
		log.Info("bot authorized", zap.String("account", api.Self.UserName))
	}
	return &TelegramClient{api: api, limiter: newLimiter(perSecond)}, nil
}

func newLimiter(perSecond float64) *rate.Limiter {
	if perSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	burst := int(math.Ceil(perSecond))
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

func (c *TelegramClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return c.api.GetUpdatesChan(config)
}

func (c *TelegramClient) StopReceivingUpdates() {
	c.api.StopReceivingUpdates()
}

func (c *TelegramClient) SendText(ctx context.Context, chatID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("%w: send message to %d: %w", ErrDelivery, chatID, err)
	}
	return nil
}

func (c *TelegramClient) SendPhoto(ctx context.Context, chatID int64, payload Payload) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(payload.PhotoURL))
	photo.Caption = payload.Caption
	photo.ReplyMarkup = encodeMarkup(payload.Markup)
	if _, err := c.api.Send(photo); err != nil {
		return fmt.Errorf("%w: send photo to %d: %w", ErrDelivery, chatID, err)
	}
	return nil
}

// EditMedia replaces photo, caption and keyboard of an existing message.
func (c *TelegramClient) EditMedia(ctx context.Context, chatID int64, messageID int, payload Payload) error {
	params := editParams(chatID, messageID)
	media := inputMediaPhoto{Type: "photo", Media: payload.PhotoURL, Caption: payload.Caption}
	if err := params.AddInterface("media", media); err != nil {
		return err
	}
	if err := params.AddInterface("reply_markup", encodeMarkup(payload.Markup)); err != nil {
		return err
	}
	return c.edit(ctx, "editMessageMedia", chatID, params)
}

// EditCaption replaces caption and keyboard, keeping the photo.
func (c *TelegramClient) EditCaption(ctx context.Context, chatID int64, messageID int, payload Payload) error {
	params := editParams(chatID, messageID)
	params["caption"] = payload.Caption
	if err := params.AddInterface("reply_markup", encodeMarkup(payload.Markup)); err != nil {
		return err
	}
	return c.edit(ctx, "editMessageCaption", chatID, params)
}

func (c *TelegramClient) edit(ctx context.Context, method string, chatID int64, params tgbotapi.Params) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.api.MakeRequest(method, params); err != nil {
		if isNotModified(err) {
			return nil
		}
		return fmt.Errorf("%w: %s in %d: %w", ErrDelivery, method, chatID, err)
	}
	return nil
}

func (c *TelegramClient) AnswerCallback(ctx context.Context, callbackID string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if _, err := c.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("%w: answer callback: %w", ErrDelivery, err)
	}
	return nil
}

// ChatMemberStatus returns the raw member status of userID in channel,
// which is either a numeric chat id or an @username.
func (c *TelegramClient) ChatMemberStatus(ctx context.Context, channel string, userID int64) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}
	member, err := c.api.GetChatMember(chatMemberConfig(channel, userID))
	if err != nil {
		return "", err
	}
	return member.Status, nil
}

func chatMemberConfig(channel string, userID int64) tgbotapi.GetChatMemberConfig {
	config := tgbotapi.GetChatMemberConfig{
		ChatConfigWithUser: tgbotapi.ChatConfigWithUser{UserID: userID},
	}
	channel = strings.TrimSpace(channel)
	if id, err := strconv.ParseInt(channel, 10, 64); err == nil {
		config.ChatID = id
	} else {
		config.SuperGroupUsername = channel
	}
	return config
}

func editParams(chatID int64, messageID int) tgbotapi.Params {
	params := make(tgbotapi.Params)
	params.AddNonZero64("chat_id", chatID)
	params.AddNonZero("message_id", messageID)
	return params
}

func isNotModified(err error) bool {
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, notModified)
	}
	return strings.Contains(err.Error(), notModified)
}

// tgbotapi v5.5.1 has no web_app button field, so inline keyboards are
// encoded here following the Bot API JSON shape.
type inlineKeyboardMarkup struct {
	InlineKeyboard [][]inlineKeyboardButton `json:"inline_keyboard"`
}

type inlineKeyboardButton struct {
	Text         string      `json:"text"`
	URL          string      `json:"url,omitempty"`
	CallbackData string      `json:"callback_data,omitempty"`
	WebApp       *webAppInfo `json:"web_app,omitempty"`
}

type webAppInfo struct {
	URL string `json:"url"`
}

type inputMediaPhoto struct {
	Type    string `json:"type"`
	Media   string `json:"media"`
	Caption string `json:"caption,omitempty"`
}

func encodeMarkup(markup Markup) *inlineKeyboardMarkup {
	if len(markup) == 0 {
		return nil
	}
	rows := make([][]inlineKeyboardButton, 0, len(markup))
	for _, row := range markup {
		buttons := make([]inlineKeyboardButton, 0, len(row))
		for _, button := range row {
			encoded := inlineKeyboardButton{
				Text:         button.Text,
				URL:          button.URL,
				CallbackData: button.CallbackData,
			}
			if button.WebAppURL != "" {
				encoded.WebApp = &webAppInfo{URL: button.WebAppURL}
			}
			buttons = append(buttons, encoded)
		}
		rows = append(rows, buttons)
	}
	return &inlineKeyboardMarkup{InlineKeyboard: rows}
}
