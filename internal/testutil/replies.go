package testutil

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/python-bale-bot/balego/bale"
)

// BaleEnvelope is the standard Bale API response format.
type BaleEnvelope struct {
	OK          bool        `json:"ok"`
	Result      any         `json:"result,omitempty"`
	ErrorCode   int         `json:"error_code,omitempty"`
	Description string      `json:"description,omitempty"`
	Parameters  *Parameters `json:"parameters,omitempty"`
}

// Parameters contains optional error parameters (e.g., retry_after).
type Parameters struct {
	RetryAfter      int   `json:"retry_after,omitempty"`
	MigrateToChatID int64 `json:"migrate_to_chat_id,omitempty"`
}

// ReplyOK writes a successful Bale API response.
func ReplyOK(w http.ResponseWriter, result any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(BaleEnvelope{
		OK:     true,
		Result: result,
	})
}

// ReplyError writes a Bale API error response.
func ReplyError(w http.ResponseWriter, code int, description string, params *Parameters) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(BaleEnvelope{
		OK:          false,
		ErrorCode:   code,
		Description: description,
		Parameters:  params,
	})
}

// ReplyRateLimit writes a 429 response with retry_after in both JSON and HTTP header.
func ReplyRateLimit(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	ReplyError(w, 429, "bot limit exceed", &Parameters{
		RetryAfter: retryAfter,
	})
}

// ReplyRateLimitHeaderOnly writes a 429 response with retry_after ONLY in the HTTP header.
func ReplyRateLimitHeaderOnly(w http.ResponseWriter, retryAfter int) {
	w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
	ReplyError(w, 429, "bot limit exceed", nil)
}

// ReplyServerError writes a 5xx server error response.
func ReplyServerError(w http.ResponseWriter, code int, description string) {
	ReplyError(w, code, description, nil)
}

// ReplyBadRequest writes a 400 bad request error.
func ReplyBadRequest(w http.ResponseWriter, description string) {
	ReplyError(w, 400, "Bad Request: "+description, nil)
}

// ReplyForbidden writes a 403 forbidden error.
func ReplyForbidden(w http.ResponseWriter, description string) {
	ReplyError(w, 403, "Forbidden: "+description, nil)
}

// ReplyUnauthorized writes the error Bale returns for an unknown token.
func ReplyUnauthorized(w http.ResponseWriter) {
	ReplyError(w, 401, "Unauthorized: token not found", nil)
}

// ReplyNotFound writes the error Bale returns for an unknown chat.
func ReplyNotFound(w http.ResponseWriter) {
	ReplyError(w, 400, "Bad Request: no such group or user", nil)
}

// ReplyMessage writes a successful message response.
func ReplyMessage(w http.ResponseWriter, messageID int64) {
	ReplyMessageWithChat(w, messageID, TestChatID)
}

// ReplyMessageWithChat writes a successful message response for a specific chat.
func ReplyMessageWithChat(w http.ResponseWriter, messageID, chatID int64) {
	ReplyOK(w, map[string]any{
		"message_id": messageID,
		"date":       1234567890,
		"chat": map[string]any{
			"id":   chatID,
			"type": "private",
		},
		"text": "Test message",
	})
}

// ReplyBool writes a successful boolean response (for deleteMessage, etc.).
func ReplyBool(w http.ResponseWriter, result bool) {
	ReplyOK(w, result)
}

// ReplyUpdates writes a successful getUpdates response.
func ReplyUpdates(w http.ResponseWriter, updates []bale.Update) {
	if updates == nil {
		updates = []bale.Update{}
	}
	ReplyOK(w, updates)
}

// ReplyUser writes a successful getMe response.
func ReplyUser(w http.ResponseWriter) {
	ReplyOK(w, TestBot())
}

// ReplyWebhookInfo writes a successful getWebhookInfo response.
func ReplyWebhookInfo(w http.ResponseWriter, url string, pendingCount int) {
	ReplyOK(w, bale.WebhookInfo{
		URL:                url,
		PendingUpdateCount: pendingCount,
	})
}
