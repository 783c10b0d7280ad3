package telegram

import (
	"context"
	"log"
	"net/http"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"rosatomquiz/internal/flow"
)

// Bot is the Telegram side of the conversation: it turns updates into
// controller calls and implements the controller's Outbox.
type Bot struct {
	api        *tgbotapi.BotAPI
	controller *flow.Controller
}

func NewBot(token string) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}
	log.Printf("Authorised on account: %s", api.Self.UserName)
	return &Bot{api: api}, nil
}

// SetController wires the conversation controller. Separate from NewBot
// because the controller needs the bot as its Outbox.
func (b *Bot) SetController(c *flow.Controller) {
	b.controller = c
}

// ProcessUpdate routes one inbound update. Callback presses are always
// acknowledged first, whether or not the controller acts on them.
func (b *Bot) ProcessUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.Message != nil:
		msg := update.Message
		if msg.Command() == "start" {
			b.controller.HandleStart(ctx, msg.Chat.ID)
			return
		}
		if msg.IsCommand() {
			return
		}
		b.controller.HandleText(ctx, msg.Chat.ID, msg.Text)

	case update.CallbackQuery != nil:
		cb := update.CallbackQuery
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, "")); err != nil {
			log.Printf("Error answering callback: %v", err)
		}
		if cb.Message == nil {
			return
		}
		b.controller.HandleCallback(ctx, cb.Message.Chat.ID, cb.Message.MessageID, cb.Data)
	}
}

// RunPolling consumes updates over long polling until ctx is cancelled.
func (b *Bot) RunPolling(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.ProcessUpdate(ctx, update)
		}
	}
}

// SetWebhook registers the webhook URL with Telegram, dropping updates
// queued while the bot was down.
func (b *Bot) SetWebhook(url string) error {
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{DropPendingUpdates: true}); err != nil {
		return err
	}
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return err
	}
	_, err = b.api.Request(wh)
	return err
}

func (b *Bot) DeleteWebhook() error {
	_, err := b.api.Request(tgbotapi.DeleteWebhookConfig{})
	return err
}

// WebhookHandler serves Telegram's webhook POSTs.
func (b *Bot) WebhookHandler(ctx context.Context) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		update, err := b.api.HandleUpdate(r)
		if err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		b.ProcessUpdate(ctx, *update)
		w.WriteHeader(http.StatusOK)
	})
}

func keyboard(rows [][]flow.Button) *tgbotapi.InlineKeyboardMarkup {
	if len(rows) == 0 {
		return nil
	}
	var kbRows [][]tgbotapi.InlineKeyboardButton
	for _, row := range rows {
		var kbRow []tgbotapi.InlineKeyboardButton
		for _, btn := range row {
			kbRow = append(kbRow, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Data))
		}
		kbRows = append(kbRows, kbRow)
	}
	kb := tgbotapi.NewInlineKeyboardMarkup(kbRows...)
	return &kb
}

// SendText implements flow.Outbox.
func (b *Bot) SendText(chatID int64, text string, rows [][]flow.Button) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if kb := keyboard(rows); kb != nil {
		msg.ReplyMarkup = *kb
	}
	sent, err := b.api.Send(msg)
	if err != nil {
		return 0, err
	}
	return sent.MessageID, nil
}

// EditText implements flow.Outbox. Editing drops the message's keyboard.
func (b *Bot) EditText(chatID int64, messageID int, text string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, text)
	edit.ParseMode = tgbotapi.ModeHTML
	_, err := b.api.Send(edit)
	return err
}

// SendPhoto implements flow.Outbox.
func (b *Bot) SendPhoto(chatID int64, png []byte, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "qr.png", Bytes: png})
	photo.Caption = caption
	_, err := b.api.Send(photo)
	return err
}
