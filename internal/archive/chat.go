package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Message is one message entry inside a chat thread. Unrecognized export
// fields are kept verbatim so a repaired archive can be written back without
// losing vendor data.
type Message struct {
	Sender    string
	SenderID  string
	FromMe    bool
	Content   string
	Data      string
	Caption   string
	Timestamp float64
	Time      string

	// Written by the repair pass.
	ResolvedSender       string
	ResolutionConfidence int
	ResolutionSource     string
	Destination          *DestinationInfo

	extra map[string]json.RawMessage
}

// DestinationInfo is the destination annotation attached to repaired messages.
type DestinationInfo struct {
	ChatName      string `json:"chat_name"`
	ChatType      string `json:"chat_type"`
	RecipientName string `json:"recipient_name"`
	Direction     string `json:"direction"`
}

// Text returns the searchable text of the message, preferring content over
// the data and caption fallbacks the export uses for media messages.
func (m *Message) Text() string {
	if m.Content != "" {
		return m.Content
	}
	if m.Data != "" {
		return m.Data
	}
	return m.Caption
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		var err error
		switch key {
		case "sender":
			err = json.Unmarshal(val, &m.Sender)
		case "sender_id":
			err = json.Unmarshal(val, &m.SenderID)
		case "from_me":
			err = json.Unmarshal(val, &m.FromMe)
		case "content":
			err = json.Unmarshal(val, &m.Content)
		case "data":
			err = json.Unmarshal(val, &m.Data)
		case "caption":
			err = json.Unmarshal(val, &m.Caption)
		case "timestamp":
			err = json.Unmarshal(val, &m.Timestamp)
		case "time":
			err = json.Unmarshal(val, &m.Time)
		case "resolved_sender":
			err = json.Unmarshal(val, &m.ResolvedSender)
		case "resolution_confidence":
			err = json.Unmarshal(val, &m.ResolutionConfidence)
		case "resolution_source":
			err = json.Unmarshal(val, &m.ResolutionSource)
		case "destination_info":
			err = json.Unmarshal(val, &m.Destination)
		default:
			if m.extra == nil {
				m.extra = make(map[string]json.RawMessage)
			}
			m.extra[key] = val
			continue
		}
		if err != nil {
			return fmt.Errorf("message field %q: %w", key, err)
		}
	}
	return nil
}

func (m *Message) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(m.extra)+8)
	for k, v := range m.extra {
		out[k] = v
	}

	put := func(key string, v any) error {
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("message field %q: %w", key, err)
		}
		out[key] = b
		return nil
	}

	if m.Sender != "" {
		if err := put("sender", m.Sender); err != nil {
			return nil, err
		}
	}
	if m.SenderID != "" {
		if err := put("sender_id", m.SenderID); err != nil {
			return nil, err
		}
	}
	if err := put("from_me", m.FromMe); err != nil {
		return nil, err
	}
	if m.Content != "" {
		if err := put("content", m.Content); err != nil {
			return nil, err
		}
	}
	if m.Data != "" {
		if err := put("data", m.Data); err != nil {
			return nil, err
		}
	}
	if m.Caption != "" {
		if err := put("caption", m.Caption); err != nil {
			return nil, err
		}
	}
	if m.Timestamp != 0 {
		if err := put("timestamp", m.Timestamp); err != nil {
			return nil, err
		}
	}
	if m.Time != "" {
		if err := put("time", m.Time); err != nil {
			return nil, err
		}
	}
	if m.ResolvedSender != "" {
		if err := put("resolved_sender", m.ResolvedSender); err != nil {
			return nil, err
		}
	}
	if m.ResolutionSource != "" {
		if err := put("resolution_confidence", m.ResolutionConfidence); err != nil {
			return nil, err
		}
		if err := put("resolution_source", m.ResolutionSource); err != nil {
			return nil, err
		}
	}
	if m.Destination != nil {
		if err := put("destination_info", m.Destination); err != nil {
			return nil, err
		}
	}

	return json.Marshal(out)
}

// Chat is one conversation thread. Message order follows the export file,
// which is chronological.
type Chat struct {
	ID   string
	Name string

	order    []string
	messages map[string]*Message
	extra    map[string]json.RawMessage
}

// IsGroup reports whether the chat id names a group conversation.
func (c *Chat) IsGroup() bool {
	return strings.Contains(c.ID, "-")
}

// HasName reports whether the export recorded a usable chat name. The
// exporter writes the literal string "None" for unnamed chats.
func (c *Chat) HasName() bool {
	return c.Name != "" && c.Name != "None"
}

// Append adds a message under the given id, preserving insertion order.
// Re-appending an existing id replaces the message in place.
func (c *Chat) Append(id string, m *Message) {
	if c.messages == nil {
		c.messages = make(map[string]*Message)
	}
	if _, ok := c.messages[id]; !ok {
		c.order = append(c.order, id)
	}
	c.messages[id] = m
}

// Message returns the message stored under id.
func (c *Chat) Message(id string) (*Message, bool) {
	m, ok := c.messages[id]
	return m, ok
}

// MessageIDs returns the message ids in chronological order.
func (c *Chat) MessageIDs() []string {
	ids := make([]string, len(c.order))
	copy(ids, c.order)
	return ids
}

// Len returns the number of messages in the chat.
func (c *Chat) Len() int {
	return len(c.order)
}

// Participants returns the sorted set of non-empty sender ids seen across
// the chat's messages.
func (c *Chat) Participants() []string {
	seen := make(map[string]bool)
	for _, id := range c.order {
		if sid := c.messages[id].SenderID; sid != "" {
			seen[sid] = true
		}
	}
	out := make([]string, 0, len(seen))
	for sid := range seen {
		out = append(out, sid)
	}
	sort.Strings(out)
	return out
}

func (c *Chat) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("chat: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("chat: expected field name, got %v", keyTok)
		}

		switch key {
		case "name":
			var name *string
			if err := dec.Decode(&name); err != nil {
				return fmt.Errorf("chat name: %w", err)
			}
			if name != nil {
				c.Name = *name
			}
		case "messages":
			if err := c.decodeMessages(dec); err != nil {
				return err
			}
		default:
			var raw json.RawMessage
			if err := dec.Decode(&raw); err != nil {
				return fmt.Errorf("chat field %q: %w", key, err)
			}
			if c.extra == nil {
				c.extra = make(map[string]json.RawMessage)
			}
			c.extra[key] = raw
		}
	}

	_, err = dec.Token()
	return err
}

// decodeMessages walks the messages object with the decoder so insertion
// order survives; plain map decoding would scramble it.
func (c *Chat) decodeMessages(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("chat messages: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("chat messages: expected message id, got %v", keyTok)
		}

		var msg Message
		if err := dec.Decode(&msg); err != nil {
			return fmt.Errorf("message %s: %w", id, err)
		}
		c.Append(id, &msg)
	}

	_, err = dec.Token()
	return err
}

func (c *Chat) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	writeKey := func(key string) {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(key)
		buf.Write(kb)
		buf.WriteByte(':')
	}

	if c.Name != "" {
		writeKey("name")
		nb, err := json.Marshal(c.Name)
		if err != nil {
			return nil, err
		}
		buf.Write(nb)
	}

	extraKeys := make([]string, 0, len(c.extra))
	for k := range c.extra {
		extraKeys = append(extraKeys, k)
	}
	sort.Strings(extraKeys)
	for _, k := range extraKeys {
		writeKey(k)
		buf.Write(c.extra[k])
	}

	writeKey("messages")
	buf.WriteByte('{')
	for i, id := range c.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(id)
		buf.Write(kb)
		buf.WriteByte(':')
		mb, err := json.Marshal(c.messages[id])
		if err != nil {
			return nil, fmt.Errorf("message %s: %w", id, err)
		}
		buf.Write(mb)
	}
	buf.WriteByte('}')

	buf.WriteByte('}')
	return buf.Bytes(), nil
}
