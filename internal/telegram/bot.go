package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/Djimarr/projek-maintenance/internal/engine"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"
)

const (
	msgPhotoDownloadFailed = "The photo could not be downloaded. Please send it again."
	maxPhotoBytes          = 20 << 20

	updateWorkers   = 16
	workerQueueSize = 64
)

// API is the subset of tgbotapi.BotAPI the bot uses.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	GetFileDirectURL(fileID string) (string, error)
	StopReceivingUpdates()
}

// Handler processes one chat event.
type Handler interface {
	Handle(ctx context.Context, chatID int64, ev engine.Event) []engine.Reply
}

// Bot turns Telegram updates into engine events and engine replies into messages.
type Bot struct {
	api     API
	handler Handler
	http    *http.Client
	log     *log.Entry
}

// NewAPI authenticates against Telegram with token.
func NewAPI(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	return api, nil
}

// New creates a Bot.
func New(api API, handler Handler) *Bot {
	return &Bot{
		api:     api,
		handler: handler,
		http:    &http.Client{Timeout: 30 * time.Second},
		log:     log.WithField("component", "telegram"),
	}
}

// Run long-polls for updates until ctx is cancelled. Updates from one chat
// are handled in arrival order by the same worker; different chats proceed
// in parallel across workers.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 60
	updates := b.api.GetUpdatesChan(cfg)
	b.log.Info("Polling for updates")

	queues := make([]chan tgbotapi.Update, updateWorkers)
	var wg sync.WaitGroup
	for i := range queues {
		queues[i] = make(chan tgbotapi.Update, workerQueueSize)
		wg.Add(1)
		go func(q <-chan tgbotapi.Update) {
			defer wg.Done()
			for u := range q {
				b.HandleUpdate(ctx, u)
			}
		}(queues[i])
	}
	defer func() {
		for _, q := range queues {
			close(q)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("Stopped polling")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			chatID, ok := updateChatID(update)
			if !ok {
				continue
			}
			queues[workerFor(chatID, len(queues))] <- update
		}
	}
}

// updateChatID returns the chat an update belongs to.
func updateChatID(update tgbotapi.Update) (int64, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.Message != nil && cq.Message.Chat != nil {
			return cq.Message.Chat.ID, true
		}
		return 0, false
	}
	if msg := update.Message; msg != nil && msg.Chat != nil {
		return msg.Chat.ID, true
	}
	return 0, false
}

func workerFor(chatID int64, n int) int {
	i := chatID % int64(n)
	if i < 0 {
		i = -i
	}
	return int(i)
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if cq := update.CallbackQuery; cq != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, "")); err != nil {
			b.log.WithError(err).Debug("callback ack failed")
		}
		if cq.Message == nil || cq.Message.Chat == nil {
			return
		}
		b.dispatch(ctx, cq.Message.Chat.ID, engine.ParseChoice(cq.Data))
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil {
		return
	}
	chatID := msg.Chat.ID
	switch {
	case msg.IsCommand():
		b.dispatch(ctx, chatID, engine.Command{Name: msg.Command()})
	case len(msg.Photo) > 0:
		data, err := b.downloadPhoto(ctx, msg.Photo)
		if err != nil {
			b.log.WithField("chat_id", chatID).WithError(err).Error("Failed to download photo")
			b.send(chatID, engine.Reply{Text: msgPhotoDownloadFailed})
			return
		}
		b.dispatch(ctx, chatID, engine.Photo{Data: data})
	case msg.Text != "":
		b.dispatch(ctx, chatID, engine.Text{Body: msg.Text})
	}
}

func (b *Bot) dispatch(ctx context.Context, chatID int64, ev engine.Event) {
	for _, reply := range b.handler.Handle(ctx, chatID, ev) {
		b.send(chatID, reply)
	}
}

func (b *Bot) send(chatID int64, reply engine.Reply) {
	logger := b.log.WithField("chat_id", chatID)
	if reply.Text != "" {
		if _, err := b.api.Send(Message(chatID, reply)); err != nil {
			logger.WithError(err).Error("Failed to send message")
		}
	}
	if reply.Document != "" {
		doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(reply.Document))
		if _, err := b.api.Send(doc); err != nil {
			logger.WithError(err).WithField("document", reply.Document).Error("Failed to send document")
		}
	}
}

// Message renders a reply as a text message with an inline keyboard.
func Message(chatID int64, reply engine.Reply) tgbotapi.MessageConfig {
	msg := tgbotapi.NewMessage(chatID, reply.Text)
	if len(reply.Buttons) == 0 {
		return msg
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(reply.Buttons))
	for _, r := range reply.Buttons {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, btn := range r {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(btn.Label, btn.Choice.Encode()))
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(buttons...))
	}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return msg
}

// downloadPhoto fetches the largest size of a photo.
func (b *Bot) downloadPhoto(ctx context.Context, sizes []tgbotapi.PhotoSize) ([]byte, error) {
	best := sizes[0]
	for _, s := range sizes[1:] {
		if s.Width*s.Height > best.Width*best.Height {
			best = s
		}
	}
	url, err := b.api.GetFileDirectURL(best.FileID)
	if err != nil {
		return nil, fmt.Errorf("resolve file %s: %w", best.FileID, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("download photo: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download photo: status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxPhotoBytes))
	if err != nil {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	return data, nil
}
