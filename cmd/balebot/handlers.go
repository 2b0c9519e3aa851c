package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/kr/pretty"
	"go.uber.org/zap"

	"github.com/python-bale-bot/balego"
	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
	"github.com/python-bale-bot/balego/dispatch"
	"github.com/python-bale-bot/balego/sender"
)

// Callback data of the /start buttons.
const (
	dataPing = "ping"
	dataAsk  = "ask"
)

const (
	keyAnswer = "answer"
	keyCancel = "cancel"
)

type app struct {
	bot        *balego.Bot
	log        *zap.Logger
	askTimeout time.Duration

	dumpMu sync.Mutex
	dumpTo io.Writer // nil disables -dump
}

func (a *app) register() error {
	if a.dumpTo != nil {
		a.bot.HandleFunc(check.Any(), a.dump, nil)
	}
	if err := a.bot.OnCommand(a.start, "start", "help"); err != nil {
		return err
	}
	if err := a.bot.OnCommand(a.echo, "echo"); err != nil {
		return err
	}
	if err := a.bot.OnCommand(a.ask, "ask"); err != nil {
		return err
	}
	a.bot.OnCallbackQuery(check.Data(dataPing), a.ping)
	a.bot.OnCallbackQuery(check.Data(dataAsk), a.askFromButton)
	return nil
}

func (a *app) dump(_ context.Context, u *bale.Update) error {
	a.dumpMu.Lock()
	defer a.dumpMu.Unlock()
	_, err := fmt.Fprintf(a.dumpTo, "%# v\n", pretty.Formatter(u))
	return err
}

func (a *app) start(ctx context.Context, m *bale.Message, _ []string) error {
	name := "there"
	if m.From != nil && m.From.FirstName != "" {
		name = m.From.FirstName
	}
	kb := bale.NewKeyboard().
		Row(bale.Btn("Ping", dataPing), bale.Btn("Ask me", dataAsk)).
		Build()
	text := fmt.Sprintf("Hi %s!\n/echo <text> repeats your text.\n/ask starts a short conversation.", name)
	_, err := a.bot.Reply(ctx, m, text, sender.WithKeyboard(kb))
	return err
}

func (a *app) echo(ctx context.Context, m *bale.Message, args []string) error {
	text := strings.Join(args, " ")
	if text == "" {
		text = "Usage: /echo <text>"
	}
	_, err := a.bot.Reply(ctx, m, text)
	return err
}

func (a *app) ask(ctx context.Context, m *bale.Message, _ []string) error {
	if m.From == nil || m.Chat == nil {
		return nil
	}
	return a.converse(ctx, m.Chat.ID, m.From.ID)
}

func (a *app) ping(ctx context.Context, q *bale.CallbackQuery) error {
	return a.bot.Answer(ctx, q, sender.AnswerText("pong"))
}

func (a *app) askFromButton(ctx context.Context, q *bale.CallbackQuery) error {
	if err := a.bot.Answer(ctx, q); err != nil {
		return err
	}
	if q.From == nil || q.Message == nil || q.Message.Chat == nil {
		return nil
	}
	return a.converse(ctx, q.Message.Chat.ID, q.From.ID)
}

// converse asks userID for their name in chatID and waits for the reply.
func (a *app) converse(ctx context.Context, chatID, userID int64) error {
	if _, err := a.bot.Send(ctx, chatID, "What's your name? Send /cancel to stop."); err != nil {
		return err
	}

	from := check.Author(userID).And(check.Chat(chatID))
	match, err := a.bot.WaitFor(ctx, a.askTimeout,
		dispatch.Case{Key: keyCancel, Check: from.And(check.Text("/cancel"))},
		dispatch.Case{Key: keyAnswer, Check: from.And(check.Text())},
	)
	switch {
	case errors.Is(err, dispatch.ErrWaitTimeout):
		_, err = a.bot.Send(ctx, chatID, "Too slow, try /ask again.")
		return err
	case err != nil:
		return err
	}

	a.log.Debug("conversation resolved", zap.String("key", match.Key), zap.Int64("user_id", userID))
	if match.Key == keyCancel {
		_, err = a.bot.Send(ctx, chatID, "Cancelled.")
		return err
	}
	_, err = a.bot.Reply(ctx, match.Update.Message, fmt.Sprintf("Nice to meet you, %s!", match.Update.Message.Text))
	return err
}
