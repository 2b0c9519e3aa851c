package sender

import (
	"context"
	"fmt"

	"github.com/python-bale-bot/balego/bale"
	"github.com/python-bale-bot/balego/internal/validate"
)

// SendPhoto sends a photo.
func (c *Client) SendPhoto(ctx context.Context, req SendPhotoRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Photo, req.Caption); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendPhoto", req.ChatID, req)
}

// SendDocument sends a general file.
func (c *Client) SendDocument(ctx context.Context, req SendDocumentRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Document, req.Caption); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendDocument", req.ChatID, req)
}

// SendAudio sends an audio file.
func (c *Client) SendAudio(ctx context.Context, req SendAudioRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Audio, req.Caption); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendAudio", req.ChatID, req)
}

// SendVideo sends a video.
func (c *Client) SendVideo(ctx context.Context, req SendVideoRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Video, req.Caption); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendVideo", req.ChatID, req)
}

// SendAnimation sends a GIF or a soundless video.
func (c *Client) SendAnimation(ctx context.Context, req SendAnimationRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Animation, req.Caption); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendAnimation", req.ChatID, req)
}

// SendVoice sends a voice note.
func (c *Client) SendVoice(ctx context.Context, req SendVoiceRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Voice, req.Caption); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendVoice", req.ChatID, req)
}

// SendSticker sends a sticker.
func (c *Client) SendSticker(ctx context.Context, req SendStickerRequest) (*bale.Message, error) {
	if err := c.validateMedia(req.ChatID, req.Sticker, ""); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendSticker", req.ChatID, req)
}

// SendMediaGroup sends 2-10 items as an album.
func (c *Client) SendMediaGroup(ctx context.Context, req SendMediaGroupRequest) ([]bale.Message, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validate.InRange("media", len(req.Media), 2, 10); err != nil {
		return nil, err
	}
	for i, item := range req.Media {
		if item.IsEmpty() {
			return nil, validate.Newf("media", "item %d is empty", i)
		}
		if item.MediaType == "" {
			return nil, validate.Newf("media", "item %d has no media type", i)
		}
	}

	var msgs []bale.Message
	if err := c.call(ctx, "sendMediaGroup", req.ChatID, req, &msgs); err != nil {
		return nil, err
	}
	return msgs, nil
}

// SendLocation sends a point on the map.
func (c *Client) SendLocation(ctx context.Context, req SendLocationRequest) (*bale.Message, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return nil, err
	}
	if req.Latitude < -90 || req.Latitude > 90 || req.Longitude < -180 || req.Longitude > 180 {
		return nil, validate.New("location", fmt.Sprintf("coordinates out of range: %g,%g", req.Latitude, req.Longitude))
	}
	return c.sendMessage(ctx, "sendLocation", req.ChatID, req)
}

// SendContact sends a phone contact.
func (c *Client) SendContact(ctx context.Context, req SendContactRequest) (*bale.Message, error) {
	if err := validate.ChatID(req.ChatID); err != nil {
		return nil, err
	}
	if err := validate.Required("phone_number", req.PhoneNumber); err != nil {
		return nil, err
	}
	if err := validate.Required("first_name", req.FirstName); err != nil {
		return nil, err
	}
	return c.sendMessage(ctx, "sendContact", req.ChatID, req)
}

func (c *Client) validateMedia(chatID bale.ChatID, file InputFile, caption string) error {
	if err := validate.ChatID(chatID); err != nil {
		return err
	}
	if file.IsEmpty() {
		return validate.New("file", "InputFile must have FileID, URL, Reader or Source set")
	}
	return validate.Caption(caption, c.config.MaxCaptionLength)
}
