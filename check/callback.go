package check

import (
	"context"

	"github.com/python-bale-bot/balego/bale"
)

// CallbackQuery matches any callback query update.
func CallbackQuery() Check {
	return Kind(bale.KindCallbackQuery)
}

// Data matches callback queries with data; when values are given the data
// must be one of them.
func Data(values ...string) Check {
	return New(named("Data", values, len(values)), func(_ context.Context, u *bale.Update) bool {
		return u != nil && u.CallbackQuery != nil && stringIn(u.CallbackQuery.Data, values)
	})
}
