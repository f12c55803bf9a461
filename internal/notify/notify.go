// Package notify tells portal operators about new schools over Telegram.
package notify

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"github.com/Spok95/school-portal/internal/logging"
	"github.com/Spok95/school-portal/internal/models"
	"github.com/Spok95/school-portal/internal/tg"
)

// Telegram sends one message per registered school to every admin chat.
// Sends run in the background; Close waits for them.
type Telegram struct {
	bot   tg.Sender
	chats []int64
	log   *zap.Logger
	loc   *time.Location

	wg sync.WaitGroup
}

func NewTelegram(bot tg.Sender, chats []int64, loc *time.Location, log *zap.Logger) *Telegram {
	if loc == nil {
		loc = time.UTC
	}
	return &Telegram{bot: bot, chats: chats, loc: loc, log: logging.OrNop(log)}
}

func (t *Telegram) SchoolRegistered(_ context.Context, school models.SchoolRecord) {
	if t == nil || t.bot == nil || len(t.chats) == 0 {
		return
	}
	text := schoolText(school.SchoolInfo, t.loc)
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		for _, chatID := range t.chats {
			if _, err := tg.Send(t.bot, tgbotapi.NewMessage(chatID, text)); err != nil {
				t.log.Warn("school notification failed", zap.Int64("chat_id", chatID), zap.Error(err))
			}
		}
	}()
}

func (t *Telegram) Close() {
	if t == nil {
		return
	}
	t.wg.Wait()
}

func schoolText(info models.SchoolInfo, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🏫 مدرسة جديدة: %s\n", info.Name)
	fmt.Fprintf(&b, "المرحلة: %s\n", info.Stage)
	fmt.Fprintf(&b, "المدير: %s", info.Principal.Name)
	if info.Principal.Whatsapp != "" {
		fmt.Fprintf(&b, " (%s)", info.Principal.Whatsapp)
	}
	if info.Principal.Email != "" {
		fmt.Fprintf(&b, "\nالبريد: %s", info.Principal.Email)
	}
	fmt.Fprintf(&b, "\n%s", info.CreatedAt.In(loc).Format("2006-01-02 15:04"))
	return b.String()
}
