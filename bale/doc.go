// Package bale provides the Bale Bot API types shared by receiver, sender
// and the dispatch layer.
//
// This package contains:
//   - Update and the payloads it carries (Message, CallbackQuery)
//   - Chat, User, attachment, payment and keyboard types
//   - Error types and sentinel errors
//   - SecretToken for safe token handling
//
// # Usage
//
//	import "github.com/python-bale-bot/balego/bale"
//
//	var u bale.Update
//	switch u.Kind() {
//	case bale.KindMessage:
//	    fmt.Println(u.Message.Content())
//	}
package bale
