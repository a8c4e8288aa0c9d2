// Package contacts loads and merges contact books from WhatsApp vCard
// exports and Google Contacts CSV exports into a single JSON book keyed
// by raw phone digits (or a synthetic email: key for email-only rows).
package contacts

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

// Provenance values recorded on each contact.
const (
	SourceVCF              = "vcf"
	SourceGoogle           = "google_contacts"
	SourceGoogleEmail      = "google_contacts_email"
	SourceManualCorrection = "manual_correction"
)

// Record is a single contact entry. DisplayName is what the resolver
// surfaces to users; Name keeps the structured form from the source.
type Record struct {
	DisplayName string `json:"display_name"`
	Name        string `json:"name"`
	Phone       string `json:"phone,omitempty"`
	PhoneRaw    string `json:"phone_raw,omitempty"`
	Email       string `json:"email,omitempty"`
	Source      string `json:"source,omitempty"`
}

// Book maps identifier keys (raw digits, or "email:addr") to records.
type Book map[string]*Record

// Load reads a contact book from a JSON file. A missing file yields an
// empty book, so first runs work without an import step.
func Load(path string) (Book, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Book{}, nil
		}
		return nil, fmt.Errorf("reading contacts %s: %w", path, err)
	}

	var b Book
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("parsing contacts %s: %w", path, err)
	}
	if b == nil {
		b = Book{}
	}
	return b, nil
}

// Save writes the book as indented JSON.
func (b Book) Save(path string) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding contacts: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing contacts %s: %w", path, err)
	}
	return nil
}

// Keys returns the book's keys in sorted order.
func (b Book) Keys() []string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// DigitsOnly strips everything but digits from a phone string.
func DigitsOnly(phone string) string {
	var sb strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			sb.WriteRune(r)
		}
	}
	return sb.String()
}
