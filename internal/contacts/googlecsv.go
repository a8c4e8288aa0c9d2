package contacts

import (
	"encoding/csv"
	"fmt"
	"os"
	"strings"
)

var (
	phoneColumns = []string{"Phone 1 - Value", "Phone 2 - Value", "Phone 3 - Value", "Phone 4 - Value"}
	emailColumns = []string{"E-mail 1 - Value", "E-mail 2 - Value", "E-mail 3 - Value", "E-mail 4 - Value"}
)

// ParseGoogleCSV reads a Google Contacts CSV export. Each row can fan
// out into several records: one per phone value (keyed by its digits)
// plus one per email address (keyed "email:addr"). Rows with no name
// are skipped. Google packs multiple values into one cell separated by
// " ::: ".
func ParseGoogleCSV(path string) (Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening google contacts %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("reading google contacts header: %w", err)
	}
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	book := Book{}
	for {
		row, err := r.Read()
		if err != nil {
			break
		}

		var parts []string
		for _, name := range []string{"Name Prefix", "First Name", "Middle Name", "Last Name", "Name Suffix"} {
			if v := field(row, name); v != "" {
				parts = append(parts, v)
			}
		}
		fullName := strings.TrimSpace(strings.Join(parts, " "))
		if fullName == "" {
			fullName = field(row, "File As")
		}
		if fullName == "" {
			continue
		}

		for _, column := range phoneColumns {
			for _, phone := range splitValues(field(row, column)) {
				digits := DigitsOnly(phone)
				if digits == "" {
					continue
				}
				book[digits] = &Record{
					DisplayName: fullName,
					Name:        fullName,
					Phone:       phone,
					PhoneRaw:    digits,
					Source:      SourceGoogle,
				}
			}
		}

		for _, column := range emailColumns {
			for _, email := range splitValues(field(row, column)) {
				book["email:"+email] = &Record{
					DisplayName: fullName,
					Name:        fullName,
					Email:       email,
					Source:      SourceGoogleEmail,
				}
			}
		}
	}

	return book, nil
}

// splitValues breaks a Google multi-value cell apart.
func splitValues(cell string) []string {
	if cell == "" {
		return nil
	}
	if !strings.Contains(cell, " ::: ") {
		return []string{cell}
	}
	raw := strings.Split(cell, " ::: ")
	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
