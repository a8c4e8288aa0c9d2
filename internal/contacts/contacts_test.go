package contacts

import (
	"os"
	"path/filepath"
	"testing"
)

func writeTempFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func TestParseVCF(t *testing.T) {
	dir := t.TempDir()

	t.Run("full card", func(t *testing.T) {
		vcf := "BEGIN:VCARD\nVERSION:3.0\nN:García;Ana;;;\nFN:Ana García\nTEL;type=CELL;waid=5215550001:+52 1 555 000 0001\nEND:VCARD\n"
		path := writeTempFile(t, dir, "Ana García.vcf", vcf)

		rec, err := ParseVCF(path)
		if err != nil {
			t.Fatalf("ParseVCF() error: %v", err)
		}
		if rec.DisplayName != "Ana García" {
			t.Errorf("DisplayName = %q", rec.DisplayName)
		}
		if rec.Name != "Ana García" {
			t.Errorf("Name = %q", rec.Name)
		}
		if rec.PhoneRaw != "5215550001" {
			t.Errorf("PhoneRaw = %q", rec.PhoneRaw)
		}
		if rec.Phone != "+52 1 555 000 0001" {
			t.Errorf("Phone = %q", rec.Phone)
		}
		if rec.Source != SourceVCF {
			t.Errorf("Source = %q", rec.Source)
		}
	})

	t.Run("filename stem fallback", func(t *testing.T) {
		vcf := "BEGIN:VCARD\nTEL;waid=5215550002:+52 1 555 000 0002\nEND:VCARD\n"
		path := writeTempFile(t, dir, "Luis Vecino.vcf", vcf)

		rec, err := ParseVCF(path)
		if err != nil {
			t.Fatalf("ParseVCF() error: %v", err)
		}
		if rec.DisplayName != "Luis Vecino" {
			t.Errorf("DisplayName = %q, want filename stem", rec.DisplayName)
		}
		if rec.Name != "Luis Vecino" {
			t.Errorf("Name should fall back to display name, got %q", rec.Name)
		}
	})

	t.Run("first name only", func(t *testing.T) {
		vcf := "BEGIN:VCARD\nN:;Pedro;;;\nTEL;waid=5215550003:+52 555 3\nEND:VCARD\n"
		path := writeTempFile(t, dir, "p.vcf", vcf)

		rec, err := ParseVCF(path)
		if err != nil {
			t.Fatalf("ParseVCF() error: %v", err)
		}
		if rec.Name != "Pedro" {
			t.Errorf("Name = %q, want %q", rec.Name, "Pedro")
		}
	})
}

func TestLoadVCFDir(t *testing.T) {
	dir := t.TempDir()
	writeTempFile(t, dir, "Ana.vcf", "FN:Ana\nTEL;waid=5215550001:+52 555 1\n")
	writeTempFile(t, dir, filepath.Join("nested", "Luis.vcf"), "FN:Luis\nTEL;waid=5215550002:+52 555 2\n")
	// No waid, so no key to store it under.
	writeTempFile(t, dir, "landline.vcf", "FN:Oficina\nTEL;type=HOME:+52 55 1111 2222\n")
	writeTempFile(t, dir, "notes.txt", "not a vcard")

	book, err := LoadVCFDir(dir)
	if err != nil {
		t.Fatalf("LoadVCFDir() error: %v", err)
	}
	if len(book) != 2 {
		t.Fatalf("expected 2 records, got %d: %v", len(book), book.Keys())
	}
	if rec := book["5215550002"]; rec == nil || rec.DisplayName != "Luis" {
		t.Errorf("nested vcard not loaded: %+v", rec)
	}
}

func TestLoadVCFDirMissing(t *testing.T) {
	if _, err := LoadVCFDir(filepath.Join(t.TempDir(), "nope")); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestParseGoogleCSV(t *testing.T) {
	csv := `Name Prefix,First Name,Middle Name,Last Name,Name Suffix,File As,Phone 1 - Value,Phone 2 - Value,E-mail 1 - Value
,Ana,,García,,,+52 1 555 000 0001 ::: +52 55 1111 2222,,ana@example.com
,,,,,Tía Rosa,+52 1 555 000 0003,,
,,,,,,+52 1 555 000 0004,,
Dr.,Luis,M,Pérez,Jr.,,,555-0005,
`
	path := writeTempFile(t, t.TempDir(), "contacts.csv", csv)

	book, err := ParseGoogleCSV(path)
	if err != nil {
		t.Fatalf("ParseGoogleCSV() error: %v", err)
	}

	// Multi-valued cell fans out into two phone records.
	if rec := book["5215550000001"]; rec == nil || rec.DisplayName != "Ana García" {
		t.Errorf("first phone of multi-value cell: %+v", rec)
	}
	if rec := book["525511112222"]; rec == nil || rec.DisplayName != "Ana García" {
		t.Errorf("second phone of multi-value cell: %+v", rec)
	}

	// Email rows get a synthetic key and their own provenance.
	if rec := book["email:ana@example.com"]; rec == nil || rec.Source != SourceGoogleEmail {
		t.Errorf("email record: %+v", rec)
	}

	// File As backs up an empty name; a row with neither is dropped.
	if rec := book["5215550000003"]; rec == nil || rec.DisplayName != "Tía Rosa" {
		t.Errorf("file-as fallback: %+v", rec)
	}
	if _, ok := book["5215550000004"]; ok {
		t.Error("row without any name should be skipped")
	}

	// All five name parts join in order.
	if rec := book["5550005"]; rec == nil || rec.DisplayName != "Dr. Luis M Pérez Jr." {
		t.Errorf("name composition: %+v", rec)
	}
}

func TestMerge(t *testing.T) {
	dst := Book{
		"5215550001": {DisplayName: "Ana", Name: "Ana", PhoneRaw: "5215550001", Source: SourceVCF},
		"5215550002": {DisplayName: "Desconocido", Name: "Desconocido", PhoneRaw: "5215550002", Source: SourceVCF},
		"5215550003": {DisplayName: "5215550003", PhoneRaw: "5215550003", Source: SourceVCF},
	}
	src := Book{
		"5215550001": {DisplayName: "Ana García", Name: "Ana García", Source: SourceGoogle},
		"5215550002": {DisplayName: "Luis", Name: "Luis", Source: SourceGoogle},
		"5215550003": {DisplayName: "Rosa", Name: "Rosa", Source: SourceGoogle},
		"5215550009": {DisplayName: "Nuevo", Name: "Nuevo", Source: SourceGoogle},
	}

	stats := Merge(dst, src, "Desconocido")

	if stats.Added != 1 || stats.Updated != 3 || stats.Renamed != 2 {
		t.Errorf("stats = %+v", stats)
	}

	// A curated name survives, but provenance still accumulates.
	if got := dst["5215550001"].DisplayName; got != "Ana" {
		t.Errorf("curated name clobbered: %q", got)
	}
	if got := dst["5215550001"].Source; got != "vcf,google_contacts" {
		t.Errorf("source = %q", got)
	}

	// Placeholder and key-as-name both lose to a real name.
	if got := dst["5215550002"].DisplayName; got != "Luis" {
		t.Errorf("placeholder not replaced: %q", got)
	}
	if got := dst["5215550003"].DisplayName; got != "Rosa" {
		t.Errorf("key-as-name not replaced: %q", got)
	}

	if _, ok := dst["5215550009"]; !ok {
		t.Error("new record not added")
	}
}

func TestFindMatching(t *testing.T) {
	book := Book{
		"5215550001":  {DisplayName: "Ana"},
		"15550000123": {DisplayName: "Bob"},
	}

	tests := []struct {
		name    string
		phone   string
		wantKey string
		wantOK  bool
	}{
		{"direct", "5215550001", "5215550001", true},
		{"digits only", "+52 1 555 0001", "5215550001", true},
		{"suffix across country code", "+52 555 000 0123", "15550000123", true},
		{"empty", "", "", false},
		{"no digits", "abc", "", false},
		{"no match", "99999999", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key, _, ok := book.FindMatching(tt.phone)
			if ok != tt.wantOK || key != tt.wantKey {
				t.Errorf("FindMatching(%q) = %q, %v; want %q, %v", tt.phone, key, ok, tt.wantKey, tt.wantOK)
			}
		})
	}
}

func TestBookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "contacts.json")

	book := Book{
		"5215550001": {DisplayName: "Ana", Name: "Ana García", Phone: "+52 1 555 0001", PhoneRaw: "5215550001", Source: SourceVCF},
	}
	if err := book.Save(path); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if rec := loaded["5215550001"]; rec == nil || rec.Name != "Ana García" || rec.Source != SourceVCF {
		t.Errorf("round trip lost data: %+v", rec)
	}
}

func TestLoadMissingFile(t *testing.T) {
	book, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if len(book) != 0 {
		t.Errorf("expected empty book, got %d records", len(book))
	}
}
