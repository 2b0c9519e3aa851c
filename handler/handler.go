// Package handler defines update handlers: the pieces that decide whether
// an update concerns them and, if so, bind the arguments their callback
// needs.
//
// Handlers never run callbacks themselves. Match returns an Invocation and
// the dispatch layer schedules it as an independent task, so a slow or
// failing callback cannot hold up other handlers.
package handler

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/check"
)

// ErrInvalidCommand is returned for command names outside [0-9a-z_]{1,32}.
var ErrInvalidCommand = errors.New("balego/handler: invalid command name")

var commandPattern = regexp.MustCompile(`^[\da-z_]{1,32}$`)

// Invocation is a callback with its arguments already bound.
type Invocation func(ctx context.Context) error

// Handler decides applicability and binds callback arguments.
type Handler interface {
	Match(ctx context.Context, u *bale.Update) (Invocation, bool)
}

// ErrorFunc receives the failure of a handler callback.
type ErrorFunc func(ctx context.Context, u *bale.Update, err error)

// Callback signatures for the built-in handlers.
type (
	UpdateFunc        func(ctx context.Context, u *bale.Update) error
	MessageFunc       func(ctx context.Context, m *bale.Message) error
	CommandFunc       func(ctx context.Context, m *bale.Message, args []string) error
	RegexFunc         func(ctx context.Context, m *bale.Message, groups []string) error
	CallbackQueryFunc func(ctx context.Context, q *bale.CallbackQuery) error
)

// FuncHandler pairs a check with an update callback.
type FuncHandler struct {
	check check.Check
	fn    UpdateFunc
}

// Func runs fn for every update c accepts.
func Func(c check.Check, fn UpdateFunc) *FuncHandler {
	return &FuncHandler{check: c, fn: fn}
}

// Match implements Handler.
func (h *FuncHandler) Match(ctx context.Context, u *bale.Update) (Invocation, bool) {
	if !h.check.Evaluate(ctx, u) {
		return nil, false
	}
	return func(ctx context.Context) error { return h.fn(ctx, u) }, true
}

func (h *FuncHandler) String() string { return "Func(" + h.check.String() + ")" }

// MessageHandler handles new messages.
type MessageHandler struct {
	check  check.Check
	fn     MessageFunc
	edited bool
}

// Message runs fn for every new message.
func Message(fn MessageFunc) *MessageHandler {
	return &MessageHandler{fn: fn}
}

// EditedMessage runs fn for every edited message.
func EditedMessage(fn MessageFunc) *MessageHandler {
	return &MessageHandler{fn: fn, edited: true}
}

// When restricts the handler to updates c accepts.
func (h *MessageHandler) When(c check.Check) *MessageHandler {
	h.check = c
	return h
}

// Match implements Handler.
func (h *MessageHandler) Match(ctx context.Context, u *bale.Update) (Invocation, bool) {
	m := u.Message
	if h.edited {
		m = u.EditedMessage
	}
	if m == nil || !h.check.Evaluate(ctx, u) {
		return nil, false
	}
	return func(ctx context.Context) error { return h.fn(ctx, m) }, true
}

func (h *MessageHandler) String() string {
	if h.edited {
		return "EditedMessage(" + h.check.String() + ")"
	}
	return "Message(" + h.check.String() + ")"
}

// CommandHandler handles "/name arg1 arg2" messages.
type CommandHandler struct {
	commands []string
	check    check.Check
	fn       CommandFunc
}

// Command runs fn for messages starting with one of the given commands.
// Arguments are the whitespace-separated words after the command.
func Command(fn CommandFunc, commands ...string) (*CommandHandler, error) {
	if len(commands) == 0 {
		return nil, fmt.Errorf("%w: no commands given", ErrInvalidCommand)
	}
	names := make([]string, 0, len(commands))
	for _, c := range commands {
		if !commandPattern.MatchString(c) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCommand, c)
		}
		names = append(names, strings.ToLower(c))
	}
	return &CommandHandler{commands: names, fn: fn}, nil
}

// When restricts the handler to updates c accepts.
func (h *CommandHandler) When(c check.Check) *CommandHandler {
	h.check = c
	return h
}

// Match implements Handler.
func (h *CommandHandler) Match(ctx context.Context, u *bale.Update) (Invocation, bool) {
	m := u.Message
	if m == nil || len(m.Text) < 2 || m.Text[0] != '/' {
		return nil, false
	}
	fields := strings.Fields(m.Text[1:])
	if len(fields) == 0 || !slices.Contains(h.commands, strings.ToLower(fields[0])) {
		return nil, false
	}
	if !h.check.Evaluate(ctx, u) {
		return nil, false
	}
	args := fields[1:]
	return func(ctx context.Context) error { return h.fn(ctx, m, args) }, true
}

func (h *CommandHandler) String() string { return "Command" + fmt.Sprint(h.commands) }

// RegexHandler handles messages whose text matches a pattern at its start.
type RegexHandler struct {
	pattern *regexp.Regexp
	check   check.Check
	fn      RegexFunc
}

// Regex compiles pattern and runs fn for messages whose text matches it
// from the first character. fn receives the full match and submatches.
func Regex(pattern string, fn RegexFunc) (*RegexHandler, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("balego/handler: compile %q: %w", pattern, err)
	}
	return RegexFrom(re, fn), nil
}

// RegexFrom is Regex with a precompiled pattern.
func RegexFrom(re *regexp.Regexp, fn RegexFunc) *RegexHandler {
	return &RegexHandler{pattern: re, fn: fn}
}

// When restricts the handler to updates c accepts.
func (h *RegexHandler) When(c check.Check) *RegexHandler {
	h.check = c
	return h
}

// Match implements Handler.
func (h *RegexHandler) Match(ctx context.Context, u *bale.Update) (Invocation, bool) {
	m := u.Message
	if m == nil || m.Text == "" {
		return nil, false
	}
	loc := h.pattern.FindStringSubmatchIndex(m.Text)
	if loc == nil || loc[0] != 0 {
		return nil, false
	}
	if !h.check.Evaluate(ctx, u) {
		return nil, false
	}
	groups := make([]string, len(loc)/2)
	for i := range groups {
		if loc[2*i] >= 0 {
			groups[i] = m.Text[loc[2*i]:loc[2*i+1]]
		}
	}
	return func(ctx context.Context) error { return h.fn(ctx, m, groups) }, true
}

func (h *RegexHandler) String() string { return "Regex(" + h.pattern.String() + ")" }

// CallbackQueryHandler handles inline keyboard presses.
type CallbackQueryHandler struct {
	check check.Check
	fn    CallbackQueryFunc
}

// CallbackQuery runs fn for every callback query.
func CallbackQuery(fn CallbackQueryFunc) *CallbackQueryHandler {
	return &CallbackQueryHandler{fn: fn}
}

// When restricts the handler to updates c accepts.
func (h *CallbackQueryHandler) When(c check.Check) *CallbackQueryHandler {
	h.check = c
	return h
}

// Match implements Handler.
func (h *CallbackQueryHandler) Match(ctx context.Context, u *bale.Update) (Invocation, bool) {
	q := u.CallbackQuery
	if q == nil || !h.check.Evaluate(ctx, u) {
		return nil, false
	}
	return func(ctx context.Context) error { return h.fn(ctx, q) }, true
}

func (h *CallbackQueryHandler) String() string { return "CallbackQuery(" + h.check.String() + ")" }

var (
	_ Handler = (*FuncHandler)(nil)
	_ Handler = (*MessageHandler)(nil)
	_ Handler = (*CommandHandler)(nil)
	_ Handler = (*RegexHandler)(nil)
	_ Handler = (*CallbackQueryHandler)(nil)
)
