package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"gatekeeper-bot/internal/service"
)

const (
	cmdStart = "start"
	cmdUsers = "users"

	telegramMessageLimit = 4096
)

const (
	textLookupFailed = "Произошла ошибка при проверке подписки. Пожалуйста, попробуйте позже."
	textSendFailed   = "Произошла ошибка при отправке сообщения. Пожалуйста, попробуйте позже."
	textAdminOnly    = "Эта команда доступна только администратору!"
	textNoUsers      = "Пользователей пока нет."
)

// Messenger performs the outbound Telegram calls.
type Messenger interface {
	SendText(ctx context.Context, chatID int64, text string) error
	SendPhoto(ctx context.Context, chatID int64, payload Payload) error
	EditMedia(ctx context.Context, chatID int64, messageID int, payload Payload) error
	EditCaption(ctx context.Context, chatID int64, messageID int, payload Payload) error
	AnswerCallback(ctx context.Context, callbackID string) error
}

// MembershipChecker tells whether a user is subscribed to the channel.
type MembershipChecker interface {
	Check(ctx context.Context, userID int64) (service.Membership, error)
}

// Registry records users that have sent /start.
type Registry interface {
	Exists(ctx context.Context, userID int64) (bool, error)
	Add(ctx context.Context, userID int64) error
}

// Reporter renders registry summaries for the admin.
type Reporter interface {
	Render(ctx context.Context) (string, error)
	Digest(ctx context.Context) (string, error)
}

// UpdateSource delivers updates; *tgbotapi.BotAPI and TelegramClient satisfy it.
type UpdateSource interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Dependencies wires the bot.
type Dependencies struct {
	Messenger  Messenger
	Membership MembershipChecker
	Registry   Registry
	Reports    Reporter
	Links      Links
	AdminID    int64
	Logger     *zap.Logger
}

// Bot routes updates to handlers. It keeps no per-conversation state.
type Bot struct {
	messenger  Messenger
	membership MembershipChecker
	registry   Registry
	reports    Reporter
	links      Links
	adminID    int64
	log        *zap.Logger
}

func New(deps Dependencies) (*Bot, error) {
	if deps.Messenger == nil {
		return nil, errors.New("bot: messenger is required")
	}
	if deps.Membership == nil {
		return nil, errors.New("bot: membership checker is required")
	}
	if deps.Registry == nil {
		return nil, errors.New("bot: registry is required")
	}
	if deps.Reports == nil {
		return nil, errors.New("bot: reporter is required")
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		messenger:  deps.Messenger,
		membership: deps.Membership,
		registry:   deps.Registry,
		reports:    deps.Reports,
		links:      deps.Links,
		adminID:    deps.AdminID,
		log:        logger,
	}, nil
}

// Start begins polling updates until ctx is cancelled.
func (b *Bot) Start(ctx context.Context, source UpdateSource) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = 60
	updates := source.GetUpdatesChan(updateConfig)

	b.log.Info("start polling updates")

	go func() {
		<-ctx.Done()
		source.StopReceivingUpdates()
	}()

	for update := range updates {
		if err := b.handleUpdate(ctx, update); err != nil {
			b.log.Error("handle update", zap.Int("update_id", update.UpdateID), zap.Error(err))
		}
	}

	return ctx.Err()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) error {
	switch {
	case update.CallbackQuery != nil:
		return b.handleCallback(ctx, update.CallbackQuery)
	case update.Message != nil:
		return b.handleMessage(ctx, update.Message)
	}
	return nil
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) error {
	if msg.From == nil || msg.Chat == nil || !msg.IsCommand() {
		return nil
	}

	b.log.Debug("command", zap.String("command", msg.Command()), zap.Int64("user_id", msg.From.ID))

	switch msg.Command() {
	case cmdStart:
		return b.handleStart(ctx, msg)
	case cmdUsers:
		return b.handleUsers(ctx, msg)
	default:
		return nil
	}
}

func (b *Bot) handleStart(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	userID := msg.From.ID
	b.log.Info("start", zap.Int64("chat_id", chatID), zap.Int64("user_id", userID))

	if msg.From.IsBot {
		return nil
	}

	if err := b.ensureRegistered(ctx, userID); err != nil {
		return err
	}

	membership, err := b.membership.Check(ctx, userID)
	if err != nil {
		b.log.Warn("membership lookup failed", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(ctx, chatID, textLookupFailed)
		return nil
	}

	payload := payloadFor(membership, b.links)
	if err := b.messenger.SendPhoto(ctx, chatID, payload); err != nil {
		b.log.Warn("send photo failed", zap.Int64("chat_id", chatID), zap.Error(err))
		b.reply(ctx, chatID, textSendFailed)
	}
	return nil
}

func (b *Bot) ensureRegistered(ctx context.Context, userID int64) error {
	exists, err := b.registry.Exists(ctx, userID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	if err := b.registry.Add(ctx, userID); err != nil {
		return err
	}
	b.log.Info("user registered", zap.Int64("user_id", userID))
	return nil
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	if cb == nil || cb.From == nil || cb.Message == nil || cb.Message.Chat == nil {
		return nil
	}

	if err := b.messenger.AnswerCallback(ctx, cb.ID); err != nil {
		b.log.Debug("callback ack", zap.Error(err))
	}

	switch cb.Data {
	case cbCheckSubscription:
		return b.handleRecheck(ctx, cb)
	default:
		return nil
	}
}

func (b *Bot) handleRecheck(ctx context.Context, cb *tgbotapi.CallbackQuery) error {
	chatID := cb.Message.Chat.ID
	messageID := cb.Message.MessageID
	userID := cb.From.ID

	membership, err := b.membership.Check(ctx, userID)
	if err != nil {
		b.log.Warn("membership recheck failed", zap.Int64("user_id", userID), zap.Error(err))
		b.reply(ctx, chatID, textLookupFailed)
		return nil
	}

	b.log.Info("membership recheck", zap.Int64("user_id", userID), zap.Stringer("membership", membership))

	if membership == service.MembershipSubscribed {
		err = b.messenger.EditMedia(ctx, chatID, messageID, rewardPayload(b.links))
	} else {
		err = b.messenger.EditCaption(ctx, chatID, messageID, subscribePayload(b.links, stillNotSubscribedCaption(b.links)))
	}
	if err != nil {
		b.log.Warn("edit message failed", zap.Int64("chat_id", chatID), zap.Int("message_id", messageID), zap.Error(err))
		b.reply(ctx, chatID, textLookupFailed)
	}
	return nil
}

func (b *Bot) handleUsers(ctx context.Context, msg *tgbotapi.Message) error {
	chatID := msg.Chat.ID
	if msg.From.ID != b.adminID {
		b.log.Info("users command denied", zap.Int64("user_id", msg.From.ID))
		b.reply(ctx, chatID, textAdminOnly)
		return nil
	}

	report, err := b.reports.Render(ctx)
	if err != nil {
		return fmt.Errorf("render users report: %w", err)
	}
	if report == "" {
		b.reply(ctx, chatID, textNoUsers)
		return nil
	}
	for _, chunk := range service.SplitMessage(report, telegramMessageLimit) {
		if err := b.messenger.SendText(ctx, chatID, chunk); err != nil {
			b.log.Warn("send report failed", zap.Int64("chat_id", chatID), zap.Error(err))
			b.reply(ctx, chatID, textSendFailed)
			return nil
		}
	}
	return nil
}

// SendAdminDigest sends the registry size to the admin.
func (b *Bot) SendAdminDigest(ctx context.Context) error {
	text, err := b.reports.Digest(ctx)
	if err != nil {
		return err
	}
	return b.messenger.SendText(ctx, b.adminID, text)
}

// reply sends text and only logs a failure; apologies must never fail a turn.
func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	if err := b.messenger.SendText(ctx, chatID, text); err != nil {
		b.log.Error("send message failed", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}
