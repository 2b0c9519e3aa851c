package sender

import (
	"context"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/validate"
)

// GetChat returns up-to-date information about a chat.
func (c *Client) GetChat(ctx context.Context, chatID bale.ChatID) (*bale.Chat, error) {
	if err := validate.ChatID(chatID); err != nil {
		return nil, err
	}
	var chat bale.Chat
	if err := c.call(ctx, "getChat", nil, chatRequest{ChatID: chatID}, &chat); err != nil {
		return nil, err
	}
	return &chat, nil
}

// GetChatMember returns a member of a chat.
func (c *Client) GetChatMember(ctx context.Context, chatID bale.ChatID, userID int64) (*bale.ChatMember, error) {
	if err := validateChatUser(chatID, userID); err != nil {
		return nil, err
	}
	var member bale.ChatMember
	if err := c.call(ctx, "getChatMember", nil, chatUserRequest{ChatID: chatID, UserID: userID}, &member); err != nil {
		return nil, err
	}
	return &member, nil
}

// GetChatMembersCount returns the number of members in a chat.
func (c *Client) GetChatMembersCount(ctx context.Context, chatID bale.ChatID) (int, error) {
	if err := validate.ChatID(chatID); err != nil {
		return 0, err
	}
	var count int
	if err := c.call(ctx, "getChatMembersCount", nil, chatRequest{ChatID: chatID}, &count); err != nil {
		return 0, err
	}
	return count, nil
}

// GetChatAdministrators returns the administrators of a chat.
func (c *Client) GetChatAdministrators(ctx context.Context, chatID bale.ChatID) ([]bale.ChatMember, error) {
	if err := validate.ChatID(chatID); err != nil {
		return nil, err
	}
	var admins []bale.ChatMember
	if err := c.call(ctx, "getChatAdministrators", nil, chatRequest{ChatID: chatID}, &admins); err != nil {
		return nil, err
	}
	return admins, nil
}

// BanChatMember removes a user from a group or channel.
func (c *Client) BanChatMember(ctx context.Context, chatID bale.ChatID, userID int64) error {
	if err := validateChatUser(chatID, userID); err != nil {
		return err
	}
	return c.call(ctx, "banChatMember", chatID, chatUserRequest{ChatID: chatID, UserID: userID}, nil)
}

// UnbanChatMember lifts a ban.
func (c *Client) UnbanChatMember(ctx context.Context, req UnbanChatMemberRequest) error {
	if err := validateChatUser(req.ChatID, req.UserID); err != nil {
		return err
	}
	return c.call(ctx, "unbanChatMember", req.ChatID, req, nil)
}

// PromoteChatMember grants admin rights.
func (c *Client) PromoteChatMember(ctx context.Context, req PromoteChatMemberRequest) error {
	if err := validateChatUser(req.ChatID, req.UserID); err != nil {
		return err
	}
	return c.call(ctx, "promoteChatMember", req.ChatID, req, nil)
}

// SetChatPhoto replaces the chat photo.
func (c *Client) SetChatPhoto(ctx context.Context, req SetChatPhotoRequest) error {
	if err := c.validateMedia(req.ChatID, req.Photo, ""); err != nil {
		return err
	}
	return c.call(ctx, "setChatPhoto", req.ChatID, req, nil)
}

// LeaveChat makes the bot leave a group or channel.
func (c *Client) LeaveChat(ctx context.Context, chatID bale.ChatID) error {
	if err := validate.ChatID(chatID); err != nil {
		return err
	}
	return c.call(ctx, "leaveChat", chatID, chatRequest{ChatID: chatID}, nil)
}

// InviteUser adds a user to a group or channel.
func (c *Client) InviteUser(ctx context.Context, chatID bale.ChatID, userID int64) error {
	if err := validateChatUser(chatID, userID); err != nil {
		return err
	}
	return c.call(ctx, "inviteUser", chatID, chatUserRequest{ChatID: chatID, UserID: userID}, nil)
}

func validateChatUser(chatID bale.ChatID, userID int64) error {
	if err := validate.ChatID(chatID); err != nil {
		return err
	}
	return validate.Positive("user_id", userID)
}
