package telegram

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"
)

// Messenger is the part of the Bot API client the bot uses.
// *tgbotapi.BotAPI satisfies it.
type Messenger interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Catalog is every catalog operation the bot performs.
type Catalog interface {
	Browser
	Login(ctx context.Context, username, password string) (string, error)
	CreateUnit(ctx context.Context, token string, req NewUnit) (*Unit, error)
	DeleteUnit(ctx context.Context, token string, id uint) error
	CreateProject(ctx context.Context, token string, req NewProject) (*Project, error)
}

// AllowList is the set of chat ids allowed to run admin commands.
type AllowList struct {
	mu  sync.RWMutex
	ids map[int64]bool
}

func NewAllowList(ids []int64) *AllowList {
	a := &AllowList{}
	a.Replace(ids)
	return a
}

func (a *AllowList) Contains(chatID int64) bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.ids[chatID]
}

func (a *AllowList) Replace(ids []int64) {
	set := make(map[int64]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	a.mu.Lock()
	a.ids = set
	a.mu.Unlock()
}

func (a *AllowList) Len() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return len(a.ids)
}

type Options struct {
	Messenger     Messenger
	Catalog       Catalog
	Tokens        *TokenStore
	Admins        *AllowList
	AdminUsername string
	AdminPassword string
	// ReloadAdmins rereads the admin chat ids for /refresh.
	ReloadAdmins func() ([]int64, error)
	Logger       *logrus.Logger
}

type Bot struct {
	api       Messenger
	catalog   Catalog
	nav       *Navigator
	tokens    *TokenStore
	admins    *AllowList
	adminUser string
	adminPass string
	reload    func() ([]int64, error)
	logger    *logrus.Logger
}

func New(opts Options) *Bot {
	admins := opts.Admins
	if admins == nil {
		admins = NewAllowList(nil)
	}
	return &Bot{
		api:       opts.Messenger,
		catalog:   opts.Catalog,
		nav:       NewNavigator(opts.Catalog, opts.Logger),
		tokens:    opts.Tokens,
		admins:    admins,
		adminUser: opts.AdminUsername,
		adminPass: opts.AdminPassword,
		reload:    opts.ReloadAdmins,
		logger:    opts.Logger,
	}
}

// Run handles updates one at a time until ctx is done or the channel
// closes.
func (b *Bot) Run(ctx context.Context, updates tgbotapi.UpdatesChannel) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case upd, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, upd)
		}
	}
}

// HandleUpdate dispatches a single update. A panic in a handler is logged
// and does not stop the bot.
func (b *Bot) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.WithFields(logrus.Fields{
				"update_id": upd.UpdateID,
				"panic":     r,
			}).Error("Recovered from panic in update handler")
		}
	}()

	switch {
	case upd.CallbackQuery != nil:
		b.handleCallback(ctx, upd.CallbackQuery)
	case upd.Message != nil && upd.Message.IsCommand():
		b.handleCommand(ctx, upd.Message)
	}
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send message")
	}
}

func (b *Bot) sendView(chatID int64, view View) {
	msg := tgbotapi.NewMessage(chatID, view.Text)
	msg.ReplyMarkup = view.Keyboard
	if _, err := b.api.Send(msg); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to send menu")
	}
}

func (b *Bot) handleCallback(ctx context.Context, q *tgbotapi.CallbackQuery) {
	if _, err := b.api.Request(tgbotapi.NewCallback(q.ID, "")); err != nil {
		b.logger.WithError(err).Warn("Failed to answer callback query")
	}
	if q.Message == nil || q.Message.Chat == nil {
		return
	}

	route, err := ParseRoute(q.Data)
	if err != nil {
		b.logger.WithError(err).WithField("data", q.Data).Warn("Unknown callback data")
		route = CompaniesRoute()
	}
	if route.Screen == ScreenNoop {
		return
	}

	b.logger.WithFields(logrus.Fields{
		"chat_id": q.Message.Chat.ID,
		"screen":  route.Screen.String(),
	}).Debug("Rendering screen")
	b.show(q.Message, b.nav.Render(ctx, route))
}

// show replaces msg with view. Text screens edit msg in place; photo
// screens, and any screen replacing a photo, are sent anew and msg is
// deleted.
func (b *Bot) show(msg *tgbotapi.Message, view View) {
	chatID := msg.Chat.ID

	if view.PhotoURL != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(view.PhotoURL))
		photo.Caption = view.Text
		photo.ReplyMarkup = view.Keyboard
		_, err := b.api.Send(photo)
		if err == nil {
			b.deleteMessage(chatID, msg.MessageID)
			return
		}
		b.logger.WithError(err).WithField("photo", view.PhotoURL).Error("Failed to send unit photo")
		view.Text += "\n\n❌ Could not load the image."
	}

	if len(msg.Photo) > 0 {
		b.sendView(chatID, view)
		b.deleteMessage(chatID, msg.MessageID)
		return
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(chatID, msg.MessageID, view.Text, view.Keyboard)
	if _, err := b.api.Send(edit); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Error("Failed to edit menu")
	}
}

func (b *Bot) deleteMessage(chatID int64, messageID int) {
	if _, err := b.api.Request(tgbotapi.NewDeleteMessage(chatID, messageID)); err != nil {
		b.logger.WithError(err).WithField("chat_id", chatID).Warn("Failed to delete message")
	}
}
