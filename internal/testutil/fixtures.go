package testutil

import "github.com/python-bale-bot/balego/bale"

// Test constants for consistent test data.
const (
	// TestToken is a valid-format bot token for testing.
	TestToken = "123456789:ABCdefGHIjklMNOpqrsTUVwxyz"

	// TestChatID is a test chat ID.
	TestChatID = int64(555000111)

	// TestGroupID is a test group chat ID.
	TestGroupID = int64(-777000222)

	// TestUserID is a test user ID.
	TestUserID = int64(987654321)

	// TestBotID is a test bot ID.
	TestBotID = int64(123456789)

	// TestUsername is a test username.
	TestUsername = "testuser"

	// TestBotUsername is a test bot username.
	TestBotUsername = "testbot"
)

// TestUser returns a test user fixture.
func TestUser() *bale.User {
	return &bale.User{
		ID:        TestUserID,
		FirstName: "Test",
		LastName:  "User",
		Username:  TestUsername,
	}
}

// TestBot returns a test bot user fixture.
func TestBot() *bale.User {
	return &bale.User{
		ID:        TestBotID,
		IsBot:     true,
		FirstName: "Test Bot",
		Username:  TestBotUsername,
	}
}

// TestChat returns a test private chat fixture.
func TestChat() *bale.Chat {
	return &bale.Chat{
		ID:        TestChatID,
		Type:      bale.ChatTypePrivate,
		FirstName: "Test",
		LastName:  "User",
		Username:  TestUsername,
	}
}

// TestGroupChat returns a test group chat fixture.
func TestGroupChat() *bale.Chat {
	return &bale.Chat{
		ID:    TestGroupID,
		Type:  bale.ChatTypeGroup,
		Title: "Test Group",
	}
}

// TestMessage returns a test message fixture.
func TestMessage(messageID int64, text string) *bale.Message {
	return &bale.Message{
		MessageID: messageID,
		Date:      1234567890,
		Chat:      TestChat(),
		From:      TestUser(),
		Text:      text,
	}
}

// TestUpdate returns a test update fixture with a message.
func TestUpdate(updateID int64, text string) bale.Update {
	return bale.Update{
		UpdateID: updateID,
		Message:  TestMessage(updateID, text),
	}
}

// TestUpdates returns message updates with the given identifiers, in order.
func TestUpdates(ids ...int64) []bale.Update {
	out := make([]bale.Update, 0, len(ids))
	for _, id := range ids {
		out = append(out, TestUpdate(id, "message"))
	}
	return out
}

// TestCallbackQuery returns a test callback query fixture.
func TestCallbackQuery(id, data string) *bale.CallbackQuery {
	return &bale.CallbackQuery{
		ID:      id,
		From:    TestUser(),
		Message: TestMessage(1, "Original message"),
		Data:    data,
	}
}

// TestUpdateWithCallback returns a test update fixture with a callback query.
func TestUpdateWithCallback(updateID int64, cbID, cbData string) bale.Update {
	return bale.Update{
		UpdateID:      updateID,
		CallbackQuery: TestCallbackQuery(cbID, cbData),
	}
}
