package bot

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"strings"
	"sync"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"
	"incoin_webapp/internal/telegram"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

// sender is the part of tgbotapi.BotAPI used for outgoing messages.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// LeaderboardSource feeds the /top command.
type LeaderboardSource interface {
	Top() []domain.LeaderboardEntry
}

// Bot answers /start with a link into the web app and delivers economy
// notifications to users that signed in through Telegram.
type Bot struct {
	api         *tgbotapi.BotAPI
	send        sender
	webAppURL   string
	botUsername string
	leaderboard LeaderboardSource

	outbox   chan tgbotapi.MessageConfig
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *slog.Logger
}

// outboxSize bounds notifications waiting for delivery; beyond it new ones
// are dropped.
const outboxSize = 256

func New(token, webAppURL string, lb LeaderboardSource) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}

	log := logger.With("component", "bot")
	log.Info("bot authorized", "username", api.Self.UserName)

	b := newBot(api, webAppURL, lb, log)
	b.api = api
	b.botUsername = api.Self.UserName
	return b, nil
}

// newBot wires everything but the update loop and starts the outbox.
func newBot(send sender, webAppURL string, lb LeaderboardSource, log *slog.Logger) *Bot {
	b := &Bot{
		send:        send,
		webAppURL:   webAppURL,
		leaderboard: lb,
		outbox:      make(chan tgbotapi.MessageConfig, outboxSize),
		stopCh:      make(chan struct{}),
		log:         log,
	}
	b.wg.Add(1)
	go b.deliver()
	return b
}

// Start runs the update loop until Stop.
func (b *Bot) Start() {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("starting bot update loop")

	for {
		select {
		case <-b.stopCh:
			b.log.Info("stopping bot update loop")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}

			b.wg.Add(1)
			go func(msg *tgbotapi.Message) {
				defer b.wg.Done()
				b.handleCommand(msg)
			}(update.Message)
		}
	}
}

// Stop ends the update loop and flushes queued notifications. Safe to call
// more than once.
func (b *Bot) Stop() {
	first := false
	b.stopOnce.Do(func() {
		close(b.stopCh)
		first = true
	})
	if !first {
		return
	}
	if b.api != nil {
		b.api.StopReceivingUpdates()
	}

	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		b.log.Info("bot stopped gracefully")
	case <-time.After(10 * time.Second):
		b.log.Warn("bot shutdown timeout, some handlers may not have completed")
	}
}

func (b *Bot) handleCommand(msg *tgbotapi.Message) {
	reply := b.replyFor(msg.Command(), msg.CommandArguments(), msg.Chat.ID)
	reply.ReplyToMessageID = msg.MessageID
	if _, err := b.send.Send(reply); err != nil {
		b.log.Error("error sending message", "error", err)
	}
}

func (b *Bot) replyFor(command, args string, chatID int64) tgbotapi.MessageConfig {
	var reply tgbotapi.MessageConfig
	switch command {
	case "start":
		code := telegram.ReferralFromStartParam(args)
		reply = tgbotapi.NewMessage(chatID, startMessage(code))
		if b.webAppURL != "" {
			reply.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
				tgbotapi.NewInlineKeyboardRow(
					tgbotapi.NewInlineKeyboardButtonURL("🎮 Открыть INCOIN", telegram.WebLink(b.webAppURL, code)),
				),
			)
		}
	case "top":
		reply = tgbotapi.NewMessage(chatID, topMessage(b.leaderboard))
	case "help":
		reply = tgbotapi.NewMessage(chatID, helpMessage)
	default:
		reply = tgbotapi.NewMessage(chatID, "❌ Неизвестная команда. Используйте /help для списка команд.")
	}
	reply.ParseMode = "HTML"
	return reply
}

const helpMessage = `<b>🤖 INCOIN</b>

/start - Открыть игру
/top - Топ-10 игроков`

func startMessage(code string) string {
	text := "<b>💰 Добро пожаловать в INCOIN!</b>\n\nИграйте в мини-игры, покупайте улучшения и поднимайтесь в рейтинге."
	if code != "" {
		text += fmt.Sprintf("\n\n🎁 Вас пригласили по коду <code>%s</code>", html.EscapeString(code))
	}
	return text
}

func topMessage(lb LeaderboardSource) string {
	if lb == nil {
		return "Рейтинг пока пуст"
	}
	top := lb.Top()
	if len(top) == 0 {
		return "Рейтинг пока пуст"
	}
	var sb strings.Builder
	sb.WriteString("<b>🏆 Топ игроков</b>\n\n")
	for _, e := range top {
		badge := ""
		if e.VIP {
			badge = " 👑"
		}
		fmt.Fprintf(&sb, "%d. %s%s - %s INCOIN\n", e.Rank, html.EscapeString(e.Username), badge, e.Balance.StringFixed(2))
	}
	return sb.String()
}

// ReferralCredited tells the referrer about a bonus from a referred deposit.
func (b *Bot) ReferralCredited(_ context.Context, referrer *domain.User, referred string, amount decimal.Decimal) {
	if referrer.TelegramID == nil {
		return
	}
	b.notify(*referrer.TelegramID, fmt.Sprintf("🎉 Ваш реферал <b>%s</b> пополнил баланс. Бонус: <b>+%s INCOIN</b>",
		html.EscapeString(referred), amount.StringFixed(2)))
}

// VIPPurchased confirms a VIP purchase.
func (b *Bot) VIPPurchased(_ context.Context, buyer *domain.User, plan domain.VIPPlan) {
	if buyer.TelegramID == nil {
		return
	}
	expiry := time.UnixMilli(buyer.VIPExpiry).UTC().Format("02.01.2006")
	b.notify(*buyer.TelegramID, fmt.Sprintf("👑 %s активирован до %s. Множитель x%s",
		html.EscapeString(plan.Name), expiry, plan.Multiplier.String()))
}

// notify queues a message for the outbox; callers never wait on Telegram.
func (b *Bot) notify(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = "HTML"
	select {
	case b.outbox <- msg:
	default:
		b.log.Warn("notification dropped, outbox full", "chat_id", chatID)
	}
}

// deliver sends queued notifications until Stop, then flushes what is left.
func (b *Bot) deliver() {
	defer b.wg.Done()
	for {
		select {
		case msg := <-b.outbox:
			b.sendNotification(msg)
		case <-b.stopCh:
			for {
				select {
				case msg := <-b.outbox:
					b.sendNotification(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Bot) sendNotification(msg tgbotapi.MessageConfig) {
	if _, err := b.send.Send(msg); err != nil {
		b.log.Warn("notification failed", "chat_id", msg.ChatID, "error", err)
	}
}
