// Package telegram is a long-polling Telegram front-end for the chat. Each
// Telegram chat maps to one conversation session.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"jobmate/brain-service/internal/chat"
	"jobmate/brain-service/internal/conversation"
	"jobmate/brain-service/internal/logger"
)

const welcome = "Hi! Ask me about the resumes you sent.\n\n"

// sender is the part of *tgbotapi.BotAPI the handlers use.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// FileOpener reopens a stored résumé; *documents.Service satisfies it.
type FileOpener interface {
	OpenPath(ctx context.Context, path string) (io.ReadCloser, error)
}

type Bot struct {
	api    *tgbotapi.BotAPI
	out    sender
	chat   *chat.Service
	files  FileOpener
	chatID int64 // only this chat is served; 0 serves every chat

	mu       sync.Mutex
	sessions map[int64]string
}

func NewBot(token string, chatID int64, svc *chat.Service, files FileOpener) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram login: %w", err)
	}
	b := newBot(api, svc, files, chatID)
	b.api = api
	return b, nil
}

func newBot(out sender, svc *chat.Service, files FileOpener, chatID int64) *Bot {
	return &Bot{
		out:      out,
		chat:     svc,
		files:    files,
		chatID:   chatID,
		sessions: make(map[int64]string),
	}
}

// Run polls for updates until ctx is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)
	logger.Info().Str("component", "telegram").Str("bot", b.api.Self.UserName).Msg("polling started")

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			logger.Info().Str("component", "telegram").Msg("polling stopped")
			return
		case upd := <-updates:
			b.handle(ctx, upd)
		}
	}
}

func (b *Bot) handle(ctx context.Context, upd tgbotapi.Update) {
	msg := upd.Message
	if msg == nil || msg.Chat == nil || msg.Text == "" {
		return
	}
	chatID := msg.Chat.ID
	if b.chatID != 0 && chatID != b.chatID {
		logger.Warn().Str("component", "telegram").Int64("chat_id", chatID).Msg("message from unknown chat ignored")
		return
	}

	if msg.IsCommand() {
		switch msg.Command() {
		case "start", "reset":
			b.reset(ctx, chatID)
			b.reply(chatID, welcome+helpText())
		default:
			b.reply(chatID, helpText())
		}
		return
	}

	reply, err := b.send(ctx, chatID, msg.Text)
	if err != nil {
		logger.Error().Err(err).Str("component", "telegram").Int64("chat_id", chatID).Msg("chat turn failed")
		b.reply(chatID, "Sorry, something went wrong. Please try again.")
		return
	}
	b.reply(chatID, reply.Text)
	if reply.Resume != nil {
		b.sendResume(ctx, chatID, reply)
	}
}

// send runs a turn on the chat's session, opening a new session when there is
// none or the old one expired.
func (b *Bot) send(ctx context.Context, chatID int64, text string) (chat.Reply, error) {
	id, err := b.session(ctx, chatID)
	if err != nil {
		return chat.Reply{}, err
	}
	_, reply, err := b.chat.SendTo(ctx, id, text)
	if errors.Is(err, conversation.ErrSessionNotFound) {
		b.forget(chatID)
		if id, err = b.session(ctx, chatID); err != nil {
			return chat.Reply{}, err
		}
		_, reply, err = b.chat.SendTo(ctx, id, text)
	}
	return reply, err
}

func (b *Bot) session(ctx context.Context, chatID int64) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id, ok := b.sessions[chatID]; ok {
		return id, nil
	}
	sess, err := b.chat.Start(ctx)
	if err != nil {
		return "", err
	}
	b.sessions[chatID] = sess.ID
	return sess.ID, nil
}

func (b *Bot) forget(chatID int64) {
	b.mu.Lock()
	delete(b.sessions, chatID)
	b.mu.Unlock()
}

func (b *Bot) reset(ctx context.Context, chatID int64) {
	b.mu.Lock()
	id, ok := b.sessions[chatID]
	delete(b.sessions, chatID)
	b.mu.Unlock()
	if ok {
		if err := b.chat.End(ctx, id); err != nil && !errors.Is(err, conversation.ErrSessionNotFound) {
			logger.Warn().Err(err).Str("component", "telegram").Msg("end session failed")
		}
	}
}

func (b *Bot) sendResume(ctx context.Context, chatID int64, reply chat.Reply) {
	rc, err := b.files.OpenPath(ctx, reply.Resume.FilePath)
	if err != nil {
		logger.Warn().Err(err).Str("component", "telegram").Str("path", reply.Resume.FilePath).Msg("open resume failed")
		b.reply(chatID, "The file "+reply.Resume.Filename+" is no longer available.")
		return
	}
	defer rc.Close()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileReader{Name: reply.Resume.Filename, Reader: rc})
	if _, err := b.out.Send(doc); err != nil {
		logger.Warn().Err(err).Str("component", "telegram").Msg("send document failed")
	}
}

func (b *Bot) reply(chatID int64, text string) {
	if _, err := b.out.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Warn().Err(err).Str("component", "telegram").Int64("chat_id", chatID).Msg("send message failed")
	}
}
