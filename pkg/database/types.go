package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// StringArray is an ordered list of strings kept in a single text column as
// a JSON array. Scan also understands the PostgreSQL array literal form so
// columns created as TEXT[] keep working.
type StringArray []string

// Scan implements sql.Scanner.
func (a *StringArray) Scan(value interface{}) error {
	var raw string
	switch v := value.(type) {
	case nil:
		*a = StringArray{}
		return nil
	case []byte:
		raw = string(v)
	case string:
		raw = v
	default:
		return fmt.Errorf("StringArray: unsupported scan type %T", value)
	}

	raw = strings.TrimSpace(raw)
	switch {
	case raw == "":
		*a = StringArray{}
		return nil
	case strings.HasPrefix(raw, "["):
		var out []string
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return fmt.Errorf("StringArray: %w", err)
		}
		*a = out
		return nil
	case strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}"):
		*a = parsePostgresArray(raw[1 : len(raw)-1])
		return nil
	default:
		*a = StringArray{raw}
		return nil
	}
}

// parsePostgresArray splits the body of a PostgreSQL array literal, honouring
// quoted elements and backslash escapes.
func parsePostgresArray(s string) StringArray {
	out := StringArray{}
	if s == "" {
		return out
	}

	var current strings.Builder
	inQuotes, escaped := false, false
	for _, r := range s {
		switch {
		case escaped:
			current.WriteRune(r)
			escaped = false
		case r == '\\':
			escaped = true
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			out = append(out, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(out, current.String())
}

// Value implements driver.Valuer. A nil array is stored as "[]" so the
// column can be NOT NULL.
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	data, err := json.Marshal([]string(a))
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// GormDataType returns the GORM data type hint.
func (StringArray) GormDataType() string {
	return "text"
}
