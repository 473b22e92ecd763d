// Package bot – telebot transport
//
// Thin glue between Telegram updates and the Service. Handlers extract
// identity and text from the update, call the Service, and translate the
// result into replies. Transient messaging failures (deleting an already
// deleted status message, failing to answer a stale callback) are logged
// at debug level and swallowed.
package bot

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/rs/zerolog"
	tele "gopkg.in/telebot.v4"

	"github.com/pepemp3/shillbot/internal/domain"
	"github.com/pepemp3/shillbot/internal/generator"
	"github.com/pepemp3/shillbot/internal/sharing"
)

// generationTimeout bounds one full image+caption run.
const generationTimeout = 5 * time.Minute

// Config carries the transport-level settings.
type Config struct {
	Token string
	// RequiredChatID is the channel users must join before generating;
	// zero disables the membership gate.
	RequiredChatID int64
	// RequiredChannelName is the public handle quoted in denial messages.
	RequiredChannelName string
	// OperatorChatID receives escalations for operator-fixable failures;
	// zero disables escalation.
	OperatorChatID int64
	PollTimeout    time.Duration
}

// Bot wires the Service to a live Telegram connection.
type Bot struct {
	tb  *tele.Bot
	svc *Service
	cfg Config
	log zerolog.Logger

	mentionRe *regexp.Regexp
}

// New connects to Telegram and registers all handlers. The Service's
// membership gate can be built from the returned bot's Telebot.
func New(cfg Config, svc *Service, log zerolog.Logger) (*Bot, error) {
	pollTimeout := cfg.PollTimeout
	if pollTimeout == 0 {
		pollTimeout = 10 * time.Second
	}
	tb, err := tele.NewBot(tele.Settings{
		Token:  cfg.Token,
		Poller: &tele.LongPoller{Timeout: pollTimeout},
	})
	if err != nil {
		return nil, fmt.Errorf("create bot: %w", err)
	}

	b := &Bot{
		tb:        tb,
		svc:       svc,
		cfg:       cfg,
		log:       log,
		mentionRe: regexp.MustCompile(`(?i)@` + regexp.QuoteMeta(tb.Me.Username) + `\s+(.+)`),
	}
	b.register()
	return b, nil
}

// Telebot exposes the underlying connection for adapters (membership gate,
// operator notifications).
func (b *Bot) Telebot() *tele.Bot { return b.tb }

// AttachService injects the Service after construction. The Service needs
// the live connection for its membership gate, so wiring is two-phase.
func (b *Bot) AttachService(svc *Service) { b.svc = svc }

// Start runs the long-poll loop until Stop is called.
func (b *Bot) Start() {
	b.log.Info().Str("username", b.tb.Me.Username).Int64("bot_id", b.tb.Me.ID).Msg("bot started")
	b.tb.Start()
}

// Stop terminates the poll loop.
func (b *Bot) Stop() { b.tb.Stop() }

func (b *Bot) register() {
	b.tb.Handle("/start", b.handleStart)
	b.tb.Handle("/moods", b.handleMoods)
	b.tb.Handle("/promo", b.handlePromo)
	b.tb.Handle("/leaderboard", b.handleLeaderboard)
	b.tb.Handle(tele.OnText, b.handleText)
	b.tb.Handle(tele.OnCallback, b.handleCallback)
	b.tb.Handle(tele.OnQuery, b.handleInlineQuery)
}

func (b *Bot) handleStart(c tele.Context) error {
	return c.Send(welcomeMessage)
}

func (b *Bot) handleMoods(c tele.Context) error {
	return c.Send(moodsMessage, tele.ModeMarkdown)
}

func (b *Bot) handlePromo(c tele.Context) error {
	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	promo, err := b.svc.Promo(ctx, c.Text())
	if err != nil {
		b.log.Error().Err(err).Int64("user_id", c.Sender().ID).Msg("promo generation failed")
		b.escalate(err)
		return c.Send(promoFailedMessage)
	}
	return c.Send(promo, tele.ModeMarkdown)
}

func (b *Bot) handleLeaderboard(c tele.Context) error {
	return c.Send(b.svc.Leaderboard(), tele.ModeMarkdown)
}

// handleText is the prompt-to-image entry point. In groups the bot only
// reacts when mentioned; the mention is stripped before validation.
func (b *Bot) handleText(c tele.Context) error {
	text := c.Text()
	if isGroup(c.Chat()) {
		prompt, mentioned := b.extractMention(text)
		if !mentioned {
			return nil
		}
		text = prompt
	}

	userID := c.Sender().ID
	chatID := c.Chat().ID

	// Ephemeral progress notice; its deletion is best-effort.
	status, err := b.tb.Send(c.Chat(), generatingMessage)
	if err != nil {
		b.log.Debug().Err(err).Msg("status message send failed")
	}
	defer b.deleteQuietly(status)

	ctx, cancel := context.WithTimeout(context.Background(), generationTimeout)
	defer cancel()

	g, err := b.svc.Generate(ctx, userID, chatID, text)
	if err != nil {
		return b.replyGenerateError(c, err)
	}

	photo := &tele.Photo{
		File:    tele.FromReader(bytes.NewReader(g.Photo)),
		Caption: g.Caption,
	}
	return c.Send(photo, &tele.SendOptions{
		ParseMode:   tele.ModeMarkdown,
		ReplyTo:     c.Message(),
		ReplyMarkup: shareMarkup(g.Share.Key),
	})
}

// replyGenerateError maps a Generate failure onto its user-facing message.
func (b *Bot) replyGenerateError(c tele.Context, err error) error {
	var denied *DeniedError
	switch {
	case errors.Is(err, generator.ErrPromptEmpty),
		errors.Is(err, generator.ErrPromptTooShort),
		errors.Is(err, generator.ErrPromptTooLong):
		return c.Send(validationMessage(err), &tele.SendOptions{ReplyTo: c.Message()})
	case errors.As(err, &denied):
		return c.Send(denialMessage(&denied.Denial, b.cfg.RequiredChannelName), &tele.SendOptions{ReplyTo: c.Message()})
	default:
		class := generator.Classify(err)
		b.log.Error().Err(err).Str("class", string(class)).Int64("user_id", c.Sender().ID).Msg("generation failed")
		b.escalate(err)
		return c.Send(generationFailureMessage(class), &tele.SendOptions{ReplyTo: c.Message()})
	}
}

func (b *Bot) handleCallback(c tele.Context) error {
	action, err := domain.ParseCallback(c.Callback().Data)
	if err != nil {
		return c.Respond(&tele.CallbackResponse{Text: shareNotFoundMessage, ShowAlert: true})
	}

	userID := c.Sender().ID
	name := senderName(c.Sender())

	switch action.Kind {
	case domain.ActionShareTelegram:
		share, err := b.svc.ResolveNativeShare(userID, name, action.ShareKey)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: shareNotFoundMessage, ShowAlert: true})
		}
		notice := alreadyCountedNotice
		if share.Awarded {
			notice = pointsAwardedNotice(domain.ChannelTelegram.Points(), share.Total)
		}
		if err := c.Respond(&tele.CallbackResponse{Text: notice}); err != nil {
			b.log.Debug().Err(err).Msg("callback answer failed")
		}
		markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
			{{Text: btnPickChat, InlineQuery: share.InlineQuery}},
		}}
		return c.Send(sharePickChatMessage, &tele.SendOptions{
			ReplyTo:     c.Callback().Message,
			ReplyMarkup: markup,
		})

	case domain.ActionShareTwitter:
		share, err := b.svc.ResolveTwitterShare(userID, action.ShareKey)
		if err != nil {
			return c.Respond(&tele.CallbackResponse{Text: shareNotFoundMessage, ShowAlert: true})
		}
		if err := c.Respond(&tele.CallbackResponse{Text: shareOpeningTwitter}); err != nil {
			b.log.Debug().Err(err).Msg("callback answer failed")
		}
		markup := &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
			{{Text: btnConfirmTwitter, Data: share.ConfirmData}},
		}}
		return c.Send(twitterShareMessage(share.IntentURL), &tele.SendOptions{
			ParseMode:   tele.ModeMarkdown,
			ReplyTo:     c.Callback().Message,
			ReplyMarkup: markup,
		})

	case domain.ActionConfirmTwitter:
		total, err := b.svc.ConfirmTwitter(userID, name, action.Token)
		if err != nil {
			notice := shareNotFoundMessage
			if errors.Is(err, sharing.ErrAlreadyAwarded) || errors.Is(err, sharing.ErrTokenInvalid) {
				notice = alreadyCountedNotice
			}
			return c.Respond(&tele.CallbackResponse{Text: notice, ShowAlert: true})
		}
		return c.Respond(&tele.CallbackResponse{
			Text:      pointsAwardedNotice(domain.ChannelTwitter.Points(), total),
			ShowAlert: true,
		})
	}

	return c.Respond(&tele.CallbackResponse{Text: shareNotFoundMessage, ShowAlert: true})
}

func (b *Bot) handleInlineQuery(c tele.Context) error {
	payload, ok := b.svc.InlineShare(c.Query().Text)
	if !ok {
		result := &tele.ArticleResult{
			Title:       "🤖 ShillBot",
			Description: "Отправьте запрос боту для генерации изображения Pepe",
			Text:        "🤖 Используйте бота для генерации изображений Pepe с промо-сообщениями!",
		}
		result.SetResultID("default")
		return c.Answer(&tele.QueryResponse{Results: tele.Results{result}})
	}

	return c.Answer(&tele.QueryResponse{
		Results:    tele.Results{promoInlineResult(payload)},
		CacheTime:  60,
		IsPersonal: true,
	})
}

// promoInlineResult builds the inline article forwarding the promo text.
// The parse mode rides on the message content, not the article itself.
func promoInlineResult(payload domain.SharePayload) *tele.ArticleResult {
	result := &tele.ArticleResult{
		Title:       "🎉 Поделиться промо-сообщением $PEPE.MP3",
		Description: "Нажмите, чтобы отправить промо-сообщение в этот чат",
	}
	result.SetResultID(payload.Key)
	result.SetContent(&tele.InputTextMessageContent{
		Text:      payload.PromoText,
		ParseMode: tele.ModeMarkdown,
	})
	return result
}

// escalate forwards operator-fixable failures to the operator chat.
func (b *Bot) escalate(err error) {
	if b.cfg.OperatorChatID == 0 || generator.Classify(err) != generator.FailureAuth {
		return
	}
	msg := fmt.Sprintf("⚠️ Provider auth failure, operator action required: %v", err)
	if _, sendErr := b.tb.Send(tele.ChatID(b.cfg.OperatorChatID), msg); sendErr != nil {
		b.log.Error().Err(sendErr).Msg("operator escalation failed")
	}
}

// deleteQuietly removes an ephemeral message, ignoring failures such as
// the message already being gone.
func (b *Bot) deleteQuietly(m *tele.Message) {
	if m == nil {
		return
	}
	if err := b.tb.Delete(m); err != nil {
		b.log.Debug().Err(err).Msg("status message delete failed")
	}
}

// extractMention strips the bot's @mention from a group message, reporting
// whether the bot was addressed at all.
func (b *Bot) extractMention(text string) (string, bool) {
	m := b.mentionRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

func isGroup(chat *tele.Chat) bool {
	return chat != nil && (chat.Type == tele.ChatGroup || chat.Type == tele.ChatSuperGroup)
}

// senderName picks the display name recorded on the leaderboard.
func senderName(u *tele.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	if u.Username != "" {
		return u.Username
	}
	return fmt.Sprintf("User %d", u.ID)
}

// shareMarkup builds the two share buttons attached to every generation.
func shareMarkup(shareKey string) *tele.ReplyMarkup {
	return &tele.ReplyMarkup{InlineKeyboard: [][]tele.InlineButton{
		{{Text: btnShareTelegram, Data: domain.ShareTelegramData(shareKey)}},
		{{Text: btnShareTwitter, Data: domain.ShareTwitterData(shareKey)}},
	}}
}
