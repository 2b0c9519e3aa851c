package bale_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
)

// ==================== Inline keyboards ====================

func TestKeyboard_Build(t *testing.T) {
	kb := bale.NewKeyboard().
		Row(bale.Btn("A", "a"), bale.Btn("B", "b")).
		Row(bale.BtnURL("Site", "https://bale.ai")).
		Add(bale.BtnCopy("Copy", "code-123"))

	markup := kb.Build()
	require.Len(t, markup.InlineKeyboard, 2)
	assert.Len(t, markup.InlineKeyboard[0], 2)
	assert.Len(t, markup.InlineKeyboard[1], 2)
	assert.Equal(t, "code-123", markup.InlineKeyboard[1][1].CopyText.Text)

	var count int
	for range kb.AllButtons() {
		count++
	}
	assert.Equal(t, 4, count)
}

func TestKeyboard_EmptyRowIgnored(t *testing.T) {
	kb := bale.NewKeyboard().Row()
	assert.True(t, kb.Empty())
}

func TestKeyboard_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(bale.NewKeyboard().Row(bale.Btn("Go", "go")))
	require.NoError(t, err)
	assert.JSONEq(t, `{"inline_keyboard":[[{"text":"Go","callback_data":"go"}]]}`, string(data))
}

func TestPagination(t *testing.T) {
	first := bale.Pagination(1, 3, "page")
	require.Len(t, first.InlineKeyboard[0], 2)
	assert.Equal(t, "page:2", first.InlineKeyboard[0][1].CallbackData)

	middle := bale.Pagination(2, 3, "page")
	assert.Len(t, middle.InlineKeyboard[0], 3)
}

// ==================== Menu keyboards ====================

func TestMenuKeyboard_Build(t *testing.T) {
	markup := bale.NewMenuKeyboard().
		Row(bale.MenuBtn("Help")).
		Row(bale.MenuBtnContact("Share phone"), bale.MenuBtnLocation("Share location")).
		Resize().
		OneTime().
		Build()

	require.Len(t, markup.Keyboard, 2)
	assert.True(t, markup.ResizeKeyboard)
	assert.True(t, markup.OneTimeKeyboard)
	assert.True(t, markup.Keyboard[1][0].RequestContact)
	assert.True(t, markup.Keyboard[1][1].RequestLocation)
}

func TestRemoveKeyboard(t *testing.T) {
	data, err := json.Marshal(bale.RemoveKeyboard())
	require.NoError(t, err)
	assert.JSONEq(t, `{"remove_keyboard":true}`, string(data))
}
