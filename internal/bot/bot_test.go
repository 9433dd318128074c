package bot

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"incoin_webapp/internal/domain"
	"incoin_webapp/internal/logger"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"
)

type fakeSender struct {
	mu    sync.Mutex
	sent  []tgbotapi.MessageConfig
	block chan struct{} // Send waits on it when set
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if m, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, m)
	}
	return tgbotapi.Message{}, nil
}

func (f *fakeSender) messages() []tgbotapi.MessageConfig {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]tgbotapi.MessageConfig(nil), f.sent...)
}

type staticBoard []domain.LeaderboardEntry

func (s staticBoard) Top() []domain.LeaderboardEntry { return s }

func newTestBot(t *testing.T, lb LeaderboardSource) (*Bot, *fakeSender) {
	t.Helper()
	fs := &fakeSender{}
	b := newBot(fs, "https://app.example.com", lb, logger.With("component", "bot_test"))
	t.Cleanup(b.Stop)
	return b, fs
}

func TestStartCarriesReferral(t *testing.T) {
	b, _ := newTestBot(t, nil)
	reply := b.replyFor("start", "ref_REFABCDEFGH", 10)

	if !strings.Contains(reply.Text, "REFABCDEFGH") {
		t.Fatalf("text = %q", reply.Text)
	}
	kb, ok := reply.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	if !ok || len(kb.InlineKeyboard) != 1 {
		t.Fatalf("markup = %#v", reply.ReplyMarkup)
	}
	btn := kb.InlineKeyboard[0][0]
	if btn.URL == nil || *btn.URL != "https://app.example.com?ref=REFABCDEFGH" {
		t.Fatalf("button = %+v", btn)
	}
}

func TestTopCommand(t *testing.T) {
	b, _ := newTestBot(t, staticBoard{
		{Rank: 1, Username: "alice", Balance: decimal.NewFromInt(500), VIP: true},
		{Rank: 2, Username: "<bob>", Balance: decimal.RequireFromString("0.1")},
	})
	text := b.replyFor("top", "", 10).Text
	if !strings.Contains(text, "1. alice 👑 - 500.00 INCOIN") {
		t.Fatalf("text = %q", text)
	}
	if !strings.Contains(text, "&lt;bob&gt;") {
		t.Fatalf("username not escaped: %q", text)
	}

	empty, _ := newTestBot(t, staticBoard{})
	if got := empty.replyFor("top", "", 10).Text; got != "Рейтинг пока пуст" {
		t.Fatalf("empty board = %q", got)
	}
}

func TestNotificationsNeedTelegramID(t *testing.T) {
	b, fs := newTestBot(t, nil)
	ctx := context.Background()

	b.ReferralCredited(ctx, &domain.User{Username: "web-only"}, "bob", decimal.NewFromInt(150))

	tgID := int64(555)
	b.ReferralCredited(ctx, &domain.User{Username: "alice", TelegramID: &tgID}, "bob", decimal.NewFromInt(150))
	plan, _ := domain.FindVIPPlan(domain.VIPWeek)
	b.VIPPurchased(ctx, &domain.User{Username: "alice", TelegramID: &tgID, VIPExpiry: 1_700_000_000_000}, plan)

	// Stop flushes the outbox
	b.Stop()
	sent := fs.messages()
	if len(sent) != 2 {
		t.Fatalf("sent = %d", len(sent))
	}
	if sent[0].ChatID != 555 || !strings.Contains(sent[0].Text, "+150.00 INCOIN") {
		t.Fatalf("referral message = %+v", sent[0])
	}
	if !strings.Contains(sent[1].Text, "x2") {
		t.Fatalf("vip message = %q", sent[1].Text)
	}
}

func TestNotifyDoesNotWaitForTelegram(t *testing.T) {
	fs := &fakeSender{block: make(chan struct{})}
	b := newBot(fs, "", nil, logger.With("component", "bot_test"))

	tgID := int64(7)
	plan, _ := domain.FindVIPPlan(domain.VIPMonth)
	done := make(chan struct{})
	go func() {
		for i := 0; i < outboxSize+10; i++ {
			b.VIPPurchased(context.Background(), &domain.User{TelegramID: &tgID}, plan)
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("VIPPurchased blocked on a stalled sender")
	}

	close(fs.block)
	b.Stop()
	// one message may be in flight when the outbox fills, the rest overflow
	if n := len(fs.messages()); n < outboxSize || n > outboxSize+1 {
		t.Fatalf("delivered = %d", n)
	}
}
