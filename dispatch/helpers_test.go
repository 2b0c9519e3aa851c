package dispatch_test

import (
	"log/slog"

	"github.com/python-bale-bot/balego/bale"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&discardWriter{}, nil))
}

type discardWriter struct{}

func (w *discardWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

func textUpdate(id int64, text string) *bale.Update {
	return &bale.Update{
		UpdateID: id,
		Message: &bale.Message{
			MessageID: id,
			Text:      text,
			Chat:      &bale.Chat{ID: 1, Type: bale.ChatTypePrivate},
			From:      &bale.User{ID: 2},
		},
	}
}
