package resolver

import (
	"fmt"
	"strings"

	"github.com/ziadkadry99/chat-lens/internal/archive"
)

// UnknownChatLabel names chats the archive has never seen.
const UnknownChatLabel = "Unknown chat"

// SelfLabel is how the exporting user appears in resolved output.
const SelfLabel = "Yo"

// SuggestChatName proposes a human name for a chat. A stored real name
// (anything but empty or the literal "None") wins. Unnamed groups are
// named after their confidently resolved participants, unnamed
// individual chats after the chat id's own contact.
func (r *Resolver) SuggestChatName(chatID string) string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.suggestChatNameLocked(chatID)
}

func (r *Resolver) suggestChatNameLocked(chatID string) string {
	if chatID == "" || r.archive == nil {
		return UnknownChatLabel
	}
	chat, ok := r.archive.Chat(chatID)
	if !ok {
		return UnknownChatLabel
	}
	if chat.HasName() {
		return chat.Name
	}

	if strings.Contains(chatID, "-") {
		var known []string
		for _, p := range r.chatParticipants[chatID] {
			info := r.resolveLocked(p, Context{})
			if info.Confidence > 50 && info.DisplayName != r.fallback {
				known = append(known, info.DisplayName)
			}
		}
		switch {
		case len(known) >= 2:
			return fmt.Sprintf("Group with %s and %d more", known[0], len(known)-1)
		case len(known) == 1:
			return "Group with " + known[0]
		default:
			return "Group " + chatID
		}
	}

	info := r.resolveLocked(chatID, Context{})
	if info.Confidence > 0 && info.DisplayName != r.fallback {
		return info.DisplayName
	}
	return r.norm.FormatForDisplay(chatID)
}

// ResolveChatInfo describes a chat as a destination: display name,
// individual/group type and, for groups, every indexed participant
// resolved in the chat's own context. Known chats memoize; unknown
// ones do not, so a later Rebuild with richer data can still fill
// them in.
func (r *Resolver) ResolveChatInfo(chatID string) ChatInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.resolveChatInfoLocked(chatID)
}

func (r *Resolver) resolveChatInfoLocked(chatID string) ChatInfo {
	if info, ok := r.chatInfo[chatID]; ok {
		return info
	}

	info := ChatInfo{
		ChatID:       chatID,
		DisplayName:  UnknownChatLabel,
		Type:         ChatUnknown,
		Participants: []Participant{},
	}
	if r.archive == nil {
		return info
	}
	chat, ok := r.archive.Chat(chatID)
	if !ok {
		return info
	}

	if chat.IsGroup() {
		info.Type = ChatGroup
	} else {
		info.Type = ChatIndividual
	}

	if chat.HasName() {
		info.DisplayName = chat.Name
		info.Confidence = 100
	} else {
		info.DisplayName = r.suggestChatNameLocked(chatID)
		info.Confidence = 80
	}

	if info.Type == ChatGroup {
		for _, pid := range r.chatParticipants[chatID] {
			c := r.resolveLocked(pid, Context{ChatID: chatID})
			info.Participants = append(info.Participants, Participant{
				ID:    pid,
				Name:  c.DisplayName,
				Phone: c.Phone,
			})
		}
	}

	r.chatInfo[chatID] = info
	return info
}

// MessageDestination works out who a message was from and for. The
// sender id falls back to the free-text sender field; without either,
// outgoing messages are attributed to the user. In individual chats
// the recipient is the other side (the chat's contact for outgoing,
// the user for incoming); in groups the group itself receives.
func (r *Resolver) MessageDestination(msg *archive.Message, msgID, chatID string) Destination {
	r.mu.Lock()
	defer r.mu.Unlock()

	dest := Destination{IsOutgoing: msg.FromMe}
	dest.Chat = r.resolveChatInfoLocked(chatID)

	senderID := msg.SenderID
	if senderID == "" {
		senderID = msg.Sender
	}
	if senderID != "" {
		dest.Sender = r.resolveLocked(senderID, Context{ChatID: chatID, MessageID: msgID})
	} else {
		name := r.fallback
		if msg.FromMe {
			name = SelfLabel
		}
		dest.Sender = Result{DisplayName: name, Phone: r.fallback}
	}

	if dest.Chat.Type == ChatIndividual {
		if msg.FromMe {
			dest.Recipient = r.resolveLocked(chatID, Context{ChatID: chatID})
		} else {
			dest.Recipient = Result{DisplayName: SelfLabel, Phone: SelfLabel, Confidence: 100, Source: SourceSelf}
		}
	} else {
		dest.Recipient = Result{
			DisplayName: dest.Chat.DisplayName,
			Confidence:  dest.Chat.Confidence,
			Source:      SourceGroup,
		}
	}
	return dest
}
