package bale_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/python-bale-bot/balego/bale"
)

func TestSecretToken_Redaction(t *testing.T) {
	token := bale.SecretToken("123456:ABC-DEF")

	assert.Equal(t, "123456:ABC-DEF", token.Value())
	assert.Equal(t, "[REDACTED]", token.String())
	assert.Equal(t, "[REDACTED]", fmt.Sprintf("%v", token))
	assert.Equal(t, `bale.SecretToken("[REDACTED]")`, fmt.Sprintf("%#v", token))
}

func TestSecretToken_JSON(t *testing.T) {
	data, err := json.Marshal(struct {
		Token bale.SecretToken `json:"token"`
	}{Token: "123456:ABC-DEF"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"token":"[REDACTED]"}`, string(data))
}

func TestSecretToken_Slog(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	logger.Info("starting", "token", bale.SecretToken("123456:ABC-DEF"))

	assert.Contains(t, buf.String(), "[REDACTED]")
	assert.NotContains(t, buf.String(), "ABC-DEF")
}

func TestSecretToken_IsEmpty(t *testing.T) {
	assert.True(t, bale.SecretToken("").IsEmpty())
	assert.False(t, bale.SecretToken("1:x").IsEmpty())
}
