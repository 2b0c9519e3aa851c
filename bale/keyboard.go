package bale

import (
	"encoding/json"
	"iter"
	"strconv"
)

// InlineKeyboardMarkup is an inline keyboard attached to a message.
type InlineKeyboardMarkup struct {
	InlineKeyboard [][]InlineKeyboardButton `json:"inline_keyboard"`
}

// InlineKeyboardButton is one button of an inline keyboard.
type InlineKeyboardButton struct {
	Text         string      `json:"text"`
	URL          string      `json:"url,omitempty"`
	CallbackData string      `json:"callback_data,omitempty"`
	WebApp       *WebAppInfo `json:"web_app,omitempty"`
	CopyText     *CopyText   `json:"copy_text,omitempty"`
}

// WebAppInfo points a button at a mini app.
type WebAppInfo struct {
	URL string `json:"url"`
}

// CopyText is the payload of a copy-to-clipboard button.
type CopyText struct {
	Text string `json:"text"`
}

// ReplyKeyboardMarkup is a menu keyboard shown instead of the system keyboard.
type ReplyKeyboardMarkup struct {
	Keyboard        [][]KeyboardButton `json:"keyboard"`
	ResizeKeyboard  bool               `json:"resize_keyboard,omitempty"`
	OneTimeKeyboard bool               `json:"one_time_keyboard,omitempty"`
}

// KeyboardButton is one button of a menu keyboard.
type KeyboardButton struct {
	Text            string      `json:"text"`
	RequestContact  bool        `json:"request_contact,omitempty"`
	RequestLocation bool        `json:"request_location,omitempty"`
	WebApp          *WebAppInfo `json:"web_app,omitempty"`
}

// ReplyKeyboardRemove hides a previously sent menu keyboard.
type ReplyKeyboardRemove struct {
	RemoveKeyboard bool `json:"remove_keyboard"`
}

// RemoveKeyboard returns markup that hides the menu keyboard.
func RemoveKeyboard() *ReplyKeyboardRemove {
	return &ReplyKeyboardRemove{RemoveKeyboard: true}
}

// Button constructors

// Btn creates a callback button.
func Btn(text, callbackData string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CallbackData: callbackData}
}

// BtnURL creates a URL button.
func BtnURL(text, url string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, URL: url}
}

// BtnWebApp creates a mini app button.
func BtnWebApp(text, url string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, WebApp: &WebAppInfo{URL: url}}
}

// BtnCopy creates a button that copies text to the clipboard.
func BtnCopy(text, value string) InlineKeyboardButton {
	return InlineKeyboardButton{Text: text, CopyText: &CopyText{Text: value}}
}

// MenuBtn creates a plain menu keyboard button.
func MenuBtn(text string) KeyboardButton {
	return KeyboardButton{Text: text}
}

// MenuBtnContact creates a menu button that shares the user's phone number.
func MenuBtnContact(text string) KeyboardButton {
	return KeyboardButton{Text: text, RequestContact: true}
}

// MenuBtnLocation creates a menu button that shares the user's location.
func MenuBtnLocation(text string) KeyboardButton {
	return KeyboardButton{Text: text, RequestLocation: true}
}

// Keyboard builds inline keyboards fluently.
type Keyboard struct {
	rows [][]InlineKeyboardButton
}

// NewKeyboard creates a new keyboard builder.
func NewKeyboard() *Keyboard {
	return &Keyboard{rows: make([][]InlineKeyboardButton, 0, 4)}
}

// Row adds a row of buttons.
func (k *Keyboard) Row(buttons ...InlineKeyboardButton) *Keyboard {
	if len(buttons) > 0 {
		k.rows = append(k.rows, buttons)
	}
	return k
}

// Add appends buttons to the last row, or starts the first one.
func (k *Keyboard) Add(buttons ...InlineKeyboardButton) *Keyboard {
	if len(k.rows) == 0 {
		k.rows = append(k.rows, buttons)
	} else {
		last := len(k.rows) - 1
		k.rows[last] = append(k.rows[last], buttons...)
	}
	return k
}

// Build returns the completed InlineKeyboardMarkup.
func (k *Keyboard) Build() *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: k.rows}
}

// Empty reports whether the keyboard has no buttons.
func (k *Keyboard) Empty() bool {
	return len(k.rows) == 0
}

// AllButtons returns an iterator over all buttons.
func (k *Keyboard) AllButtons() iter.Seq[InlineKeyboardButton] {
	return func(yield func(InlineKeyboardButton) bool) {
		for _, row := range k.rows {
			for _, btn := range row {
				if !yield(btn) {
					return
				}
			}
		}
	}
}

// MarshalJSON implements json.Marshaler.
func (k *Keyboard) MarshalJSON() ([]byte, error) {
	return json.Marshal(k.Build())
}

// MenuKeyboard builds menu keyboards fluently.
type MenuKeyboard struct {
	markup ReplyKeyboardMarkup
}

// NewMenuKeyboard creates a menu keyboard builder.
func NewMenuKeyboard() *MenuKeyboard {
	return &MenuKeyboard{}
}

// Row adds a row of buttons.
func (m *MenuKeyboard) Row(buttons ...KeyboardButton) *MenuKeyboard {
	if len(buttons) > 0 {
		m.markup.Keyboard = append(m.markup.Keyboard, buttons)
	}
	return m
}

// Resize asks clients to fit the keyboard to its buttons.
func (m *MenuKeyboard) Resize() *MenuKeyboard {
	m.markup.ResizeKeyboard = true
	return m
}

// OneTime hides the keyboard after the first press.
func (m *MenuKeyboard) OneTime() *MenuKeyboard {
	m.markup.OneTimeKeyboard = true
	return m
}

// Build returns the completed ReplyKeyboardMarkup.
func (m *MenuKeyboard) Build() *ReplyKeyboardMarkup {
	out := m.markup
	return &out
}

// Quick keyboard builders

// InlineKeyboard creates a keyboard from rows of buttons.
func InlineKeyboard(rows ...[]InlineKeyboardButton) *InlineKeyboardMarkup {
	return &InlineKeyboardMarkup{InlineKeyboard: rows}
}

// Row creates a row of buttons for InlineKeyboard.
func Row(buttons ...InlineKeyboardButton) []InlineKeyboardButton {
	return buttons
}

// Pagination creates a pagination keyboard.
func Pagination(current, total int, prefix string) *InlineKeyboardMarkup {
	var buttons []InlineKeyboardButton
	if current > 1 {
		buttons = append(buttons, Btn("« Prev", prefix+":"+strconv.Itoa(current-1)))
	}
	buttons = append(buttons, Btn(strconv.Itoa(current)+"/"+strconv.Itoa(total), prefix+":current"))
	if current < total {
		buttons = append(buttons, Btn("Next »", prefix+":"+strconv.Itoa(current+1)))
	}
	return NewKeyboard().Row(buttons...).Build()
}

// Confirm creates a Yes/No confirmation keyboard.
func Confirm(yesData, noData string) *InlineKeyboardMarkup {
	return NewKeyboard().
		Row(Btn("Yes", yesData), Btn("No", noData)).
		Build()
}
