// Package domain – callback actions
//
// Inline keyboard callbacks and inline queries arrive as flat strings.
// Rather than prefix-matching those strings at every dispatch site, this
// file parses them once into a tagged CallbackAction with typed fields, so
// handlers switch on an explicit action kind and never see the wire format.
package domain

import (
	"errors"
	"strings"
)

// ActionKind enumerates the callback actions the bot understands.
type ActionKind int

const (
	// ActionUnknown marks a payload that did not parse; handlers answer
	// the callback with a generic "not found" notice and nothing else.
	ActionUnknown ActionKind = iota
	// ActionShareTelegram opens the platform-native share flow for a
	// share payload.
	ActionShareTelegram
	// ActionShareTwitter produces the tweet-intent link for a share payload.
	ActionShareTwitter
	// ActionConfirmTwitter redeems a one-time confirmation token minted
	// when the tweet link was handed out.
	ActionConfirmTwitter
)

// Wire prefixes. These are the only place the flat callback format exists.
const (
	prefixShareTelegram  = "share_tg:"
	prefixShareTwitter   = "share_twitter:"
	prefixConfirmTwitter = "twitter_confirmed:"

	// InlineSharePrefix prefixes inline queries that resolve a share
	// payload (switch_inline_query flow).
	InlineSharePrefix = "share_content_"
)

// ErrUnknownAction is returned when a callback payload matches no known prefix.
var ErrUnknownAction = errors.New("unknown callback action")

// CallbackAction is the parsed form of a callback payload.
//
// Exactly one of ShareKey / Token is meaningful, depending on Kind:
// share actions carry the share-payload key, confirmation actions carry
// the single-use token.
type CallbackAction struct {
	Kind     ActionKind
	ShareKey string
	Token    string
}

// ParseCallback decodes a raw callback payload into a CallbackAction.
// Payloads with a known prefix but an empty argument are rejected, so a
// truncated button payload cannot resolve to a real share.
func ParseCallback(data string) (CallbackAction, error) {
	data = strings.TrimSpace(data)
	switch {
	case strings.HasPrefix(data, prefixShareTelegram):
		key := data[len(prefixShareTelegram):]
		if key == "" {
			return CallbackAction{}, ErrUnknownAction
		}
		return CallbackAction{Kind: ActionShareTelegram, ShareKey: key}, nil
	case strings.HasPrefix(data, prefixShareTwitter):
		key := data[len(prefixShareTwitter):]
		if key == "" {
			return CallbackAction{}, ErrUnknownAction
		}
		return CallbackAction{Kind: ActionShareTwitter, ShareKey: key}, nil
	case strings.HasPrefix(data, prefixConfirmTwitter):
		tok := data[len(prefixConfirmTwitter):]
		if tok == "" {
			return CallbackAction{}, ErrUnknownAction
		}
		return CallbackAction{Kind: ActionConfirmTwitter, Token: tok}, nil
	default:
		return CallbackAction{}, ErrUnknownAction
	}
}

// ShareTelegramData encodes the native-share action for a share key.
func ShareTelegramData(shareKey string) string { return prefixShareTelegram + shareKey }

// ShareTwitterData encodes the link-share action for a share key.
func ShareTwitterData(shareKey string) string { return prefixShareTwitter + shareKey }

// ConfirmTwitterData encodes the confirmation action for a one-time token.
func ConfirmTwitterData(token string) string { return prefixConfirmTwitter + token }

// InlineShareKey extracts the share key from an inline query, if the query
// is a share-content query at all.
func InlineShareKey(query string) (string, bool) {
	if !strings.HasPrefix(query, InlineSharePrefix) {
		return "", false
	}
	key := query[len(InlineSharePrefix):]
	return key, key != ""
}
