package contacts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

var (
	waidPattern = regexp.MustCompile(`waid=([0-9]*)`)
	telValue    = regexp.MustCompile(`:([^:\r\n]*)$`)
)

// ParseVCF extracts one contact from a WhatsApp vCard. WhatsApp names
// the file after the contact, so the filename stem is the display name
// until an FN: line overrides it. The record is only usable for lookup
// when a TEL; line carried a waid= parameter (the raw WhatsApp digits).
func ParseVCF(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading vcard %s: %w", path, err)
	}

	stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	rec := &Record{DisplayName: stem, Source: SourceVCF}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(line, "FN:"):
			rec.DisplayName = strings.TrimSpace(line[3:])
		case strings.HasPrefix(line, "TEL;"):
			if m := waidPattern.FindStringSubmatch(line); m != nil {
				rec.PhoneRaw = strings.TrimSpace(m[1])
			}
			if m := telValue.FindStringSubmatch(line); m != nil {
				rec.Phone = strings.TrimSpace(m[1])
			}
		case strings.HasPrefix(line, "N:"):
			parts := strings.Split(line[2:], ";")
			if len(parts) >= 2 {
				last := strings.TrimSpace(parts[0])
				first := strings.TrimSpace(parts[1])
				switch {
				case first != "" && last != "":
					rec.Name = first + " " + last
				case first != "":
					rec.Name = first
				case last != "":
					rec.Name = last
				}
			}
		}
	}

	if rec.Name == "" {
		rec.Name = rec.DisplayName
	}
	return rec, nil
}

// LoadVCFDir parses every .vcf file under dir (recursively) and keys
// the resulting book by each card's raw WhatsApp digits. Cards without
// a waid are skipped: there is nothing to match them against.
func LoadVCFDir(dir string) (Book, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("vcard directory %s: %w", dir, err)
	}

	pattern := filepath.Join(dir, "**", "*.vcf")
	files, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("globbing vcards in %s: %w", dir, err)
	}

	book := Book{}
	for _, file := range files {
		rec, err := ParseVCF(file)
		if err != nil {
			// One unreadable card should not sink the whole import.
			continue
		}
		if rec.PhoneRaw == "" {
			continue
		}
		book[rec.PhoneRaw] = rec
	}
	return book, nil
}
