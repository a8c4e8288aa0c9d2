// Package archive models the WhatsApp export JSON (result.json): a mapping
// of chat id to chat thread, each thread an ordered mapping of message id to
// message. Order is preserved on load and save because it encodes message
// chronology.
package archive

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// Archive is a loaded chat export.
type Archive struct {
	order []string
	chats map[string]*Chat
}

// New returns an empty archive.
func New() *Archive {
	return &Archive{chats: make(map[string]*Chat)}
}

// Load reads and parses an export JSON file.
func Load(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive %s: %w", path, err)
	}
	a := New()
	if err := json.Unmarshal(data, a); err != nil {
		return nil, fmt.Errorf("parsing archive %s: %w", path, err)
	}
	return a, nil
}

// Save writes the archive back to disk.
func (a *Archive) Save(path string) error {
	data, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encoding archive: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing archive %s: %w", path, err)
	}
	return nil
}

// Add inserts a chat under its ID, preserving insertion order.
func (a *Archive) Add(c *Chat) {
	if a.chats == nil {
		a.chats = make(map[string]*Chat)
	}
	if _, ok := a.chats[c.ID]; !ok {
		a.order = append(a.order, c.ID)
	}
	a.chats[c.ID] = c
}

// Chat returns the chat stored under id.
func (a *Archive) Chat(id string) (*Chat, bool) {
	c, ok := a.chats[id]
	return c, ok
}

// ChatIDs returns the chat ids in file order.
func (a *Archive) ChatIDs() []string {
	ids := make([]string, len(a.order))
	copy(ids, a.order)
	return ids
}

// Len returns the number of chats.
func (a *Archive) Len() int {
	return len(a.order)
}

// TotalMessages returns the message count across all chats.
func (a *Archive) TotalMessages() int {
	total := 0
	for _, id := range a.order {
		total += a.chats[id].Len()
	}
	return total
}

func (a *Archive) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("archive: expected object, got %v", tok)
	}

	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		id, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("archive: expected chat id, got %v", keyTok)
		}

		var c Chat
		if err := dec.Decode(&c); err != nil {
			return fmt.Errorf("chat %s: %w", id, err)
		}
		c.ID = id
		a.Add(&c)
	}

	_, err = dec.Token()
	return err
}

func (a *Archive) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, id := range a.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, _ := json.Marshal(id)
		buf.Write(kb)
		buf.WriteByte(':')
		cb, err := json.Marshal(a.chats[id])
		if err != nil {
			return nil, fmt.Errorf("chat %s: %w", id, err)
		}
		buf.Write(cb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
