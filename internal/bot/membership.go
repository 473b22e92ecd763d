package bot

import (
	"context"
	"fmt"

	tele "gopkg.in/telebot.v4"

	"github.com/pepemp3/shillbot/internal/admission"
)

var _ admission.MembershipChecker = (*ChannelMembership)(nil)

// memberRoles are the chat-member roles that count as "subscribed".
var memberRoles = map[tele.MemberStatus]bool{
	tele.Creator:       true,
	tele.Administrator: true,
	tele.Member:        true,
	tele.Restricted:    true,
}

// ChannelMembership checks membership of the required community channel
// through the Telegram API. A zero chat ID disables the gate.
type ChannelMembership struct {
	bot    *tele.Bot
	chatID int64
}

// NewChannelMembership builds the membership gate for the given channel.
func NewChannelMembership(b *tele.Bot, chatID int64) *ChannelMembership {
	return &ChannelMembership{bot: b, chatID: chatID}
}

// IsMember reports whether the user belongs to the required channel. API
// failures return an error so the admission controller denies the request.
func (m *ChannelMembership) IsMember(_ context.Context, userID int64) (bool, error) {
	if m.chatID == 0 {
		return true, nil
	}
	member, err := m.bot.ChatMemberOf(tele.ChatID(m.chatID), &tele.User{ID: userID})
	if err != nil {
		return false, fmt.Errorf("chat member lookup: %w", err)
	}
	return memberRoles[member.Role], nil
}
