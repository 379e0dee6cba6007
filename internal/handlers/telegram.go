package handlers

import (
	"context"
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"podnplay/internal/db"
	"podnplay/internal/discovery"
)

const maxBotResults = 10

// StartTelegramBot answers bot commands until ctx is done.
func (h *Handlers) StartTelegramBot(ctx context.Context, token string) error {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return fmt.Errorf("failed to create telegram bot: %w", err)
	}

	h.logger.Info("telegram bot authorized", zap.String("account", bot.Self.UserName))

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			bot.StopReceivingUpdates()
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message == nil || !update.Message.IsCommand() {
				continue
			}
			reply := h.handleCommand(ctx, update.Message)
			if _, err := bot.Send(reply); err != nil {
				h.logger.Warn("failed to send telegram reply", zap.Int64("chat_id", update.Message.Chat.ID), zap.Error(err))
			}
		}
	}
}

func (h *Handlers) handleCommand(ctx context.Context, message *tgbotapi.Message) tgbotapi.MessageConfig {
	log := h.logger.With(zap.String("command", message.Command()))
	if message.From != nil {
		log = log.With(zap.Int64("user_id", message.From.ID))
	}
	log.Info("telegram command")

	switch message.Command() {
	case "start":
		if message.From != nil {
			if _, err := db.UpsertUser(ctx, message.From.ID, message.From.UserName); err != nil {
				log.Error("failed to upsert user", zap.Error(err))
			}
		}
		return tgbotapi.NewMessage(message.Chat.ID, fmt.Sprintf(
			"Welcome to PodNPlay! Discover podcasts at %s/discover or search here with /search <keywords>.", h.baseURL))
	case "search":
		view := h.discovery.Search(ctx, message.CommandArguments())
		msg := tgbotapi.NewMessage(message.Chat.ID, searchReply(view, h.baseURL))
		msg.ParseMode = tgbotapi.ModeHTML
		msg.DisableWebPagePreview = true
		return msg
	default:
		return tgbotapi.NewMessage(message.Chat.ID, "I don't know that command")
	}
}

// searchReply formats a discovery view as an HTML bot message.
func searchReply(view discovery.View, baseURL string) string {
	switch view.State {
	case discovery.StateError:
		return html.EscapeString(view.Error)
	case discovery.StateEmpty:
		return fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(view.Empty.Title), html.EscapeString(view.Empty.Description))
	case discovery.StateLoading:
		return "Still loading, please try again."
	}

	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n", html.EscapeString(view.Heading))
	for i, c := range view.Cards {
		if i == maxBotResults {
			fmt.Fprintf(&b, "…and %d more at %s/discover", len(view.Cards)-maxBotResults, baseURL)
			break
		}
		fmt.Fprintf(&b, "<a href=\"%s/podcasts/%s\">%s</a>\n", baseURL, c.ID, html.EscapeString(c.Title))
	}
	return strings.TrimRight(b.String(), "\n")
}
