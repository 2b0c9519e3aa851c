package sender_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/testutil"
	"github.com/python-bale-bot/balego/sender"
)

func TestGetChat(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getChat", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyOK(w, testutil.TestGroupChat())
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	chat, err := client.GetChat(context.Background(), testutil.TestGroupID)

	require.NoError(t, err)
	assert.Equal(t, "Test Group", chat.Title)
	assert.True(t, chat.IsGroup())
	server.LastCapture().AssertJSONField(t, "chat_id", float64(testutil.TestGroupID))
}

func TestGetChatMember(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getChatMember", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyOK(w, map[string]any{
			"user":                testutil.TestUser(),
			"status":              "administrator",
			"can_delete_messages": true,
		})
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	member, err := client.GetChatMember(context.Background(), testutil.TestGroupID, testutil.TestUserID)

	require.NoError(t, err)
	assert.Equal(t, bale.MemberStatusAdmin, member.Status)
	assert.True(t, member.CanDeleteMessages)
	assert.Equal(t, testutil.TestUserID, member.User.ID)
}

func TestGetChatMembersCount(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getChatMembersCount", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyOK(w, 42)
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	n, err := client.GetChatMembersCount(context.Background(), testutil.TestGroupID)

	require.NoError(t, err)
	assert.Equal(t, 42, n)
}

func TestGetChatAdministrators(t *testing.T) {
	server := testutil.NewMockServer(t)
	server.OnBot("getChatAdministrators", func(w http.ResponseWriter, r *http.Request) {
		testutil.ReplyOK(w, []map[string]any{
			{"user": testutil.TestUser(), "status": "creator"},
			{"user": testutil.TestBot(), "status": "administrator"},
		})
	})
	client := testutil.NewTestClient(t, server.BaseURL())

	admins, err := client.GetChatAdministrators(context.Background(), testutil.TestGroupID)

	require.NoError(t, err)
	require.Len(t, admins, 2)
	assert.Equal(t, bale.MemberStatusOwner, admins[0].Status)
}

func TestChatModeration(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())
	ctx := context.Background()

	require.NoError(t, client.BanChatMember(ctx, testutil.TestGroupID, testutil.TestUserID))
	got := server.LastCapture()
	got.AssertPath(t, testutil.BotPath("banChatMember"))
	got.AssertJSONField(t, "user_id", float64(testutil.TestUserID))

	require.NoError(t, client.UnbanChatMember(ctx, sender.UnbanChatMemberRequest{
		ChatID:       testutil.TestGroupID,
		UserID:       testutil.TestUserID,
		OnlyIfBanned: true,
	}))
	server.LastCapture().AssertJSONField(t, "only_if_banned", true)

	require.NoError(t, client.InviteUser(ctx, testutil.TestGroupID, testutil.TestUserID))
	server.LastCapture().AssertPath(t, testutil.BotPath("inviteUser"))

	require.NoError(t, client.LeaveChat(ctx, testutil.TestGroupID))
	server.LastCapture().AssertPath(t, testutil.BotPath("leaveChat"))
}

func TestPromoteChatMember_FlattensPermissions(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())

	err := client.PromoteChatMember(context.Background(), sender.PromoteChatMemberRequest{
		ChatID: testutil.TestGroupID,
		UserID: testutil.TestUserID,
		Permissions: bale.Permissions{
			CanDeleteMessages: true,
			CanPinMessages:    true,
		},
	})

	require.NoError(t, err)
	got := server.LastCapture()
	got.AssertJSONField(t, "can_delete_messages", true)
	got.AssertJSONField(t, "can_pin_messages", true)
	got.AssertJSONFieldAbsent(t, "can_invite_users")
}

func TestSetChatPhoto_Upload(t *testing.T) {
	forms := make(chan uploadedForm, 1)
	server := testutil.NewMockServer(t)
	server.OnBot("setChatPhoto", captureUpload(t, forms, func(w http.ResponseWriter) {
		testutil.ReplyBool(w, true)
	}))
	client := testutil.NewTestClient(t, server.BaseURL())

	err := client.SetChatPhoto(context.Background(), sender.SetChatPhotoRequest{
		ChatID: testutil.TestGroupID,
		Photo:  sender.FromBytes([]byte("png"), "logo.png"),
	})

	require.NoError(t, err)
	form := <-forms
	assert.Equal(t, "png", form.files["photo"])
	assert.Equal(t, "-777000222", form.fields["chat_id"])
}

func TestChat_Validation(t *testing.T) {
	server := testutil.NewMockServer(t)
	client := testutil.NewTestClient(t, server.BaseURL())
	ctx := context.Background()

	var vErr *bale.ValidationError

	err := client.BanChatMember(ctx, testutil.TestGroupID, 0)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "user_id", vErr.Field)

	_, err = client.GetChat(ctx, nil)
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "chat_id", vErr.Field)

	assert.Equal(t, 0, server.CaptureCount())
}
