package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Tags is the canonical tag list. The comma separated form exists only at
// the storage boundary (Scan/Value) and in CSV output.
type Tags []string

const tagSeparator = ","

// ParseTags splits a comma separated string, trims every fragment and drops empty ones.
func ParseTags(s string) Tags {
	out := Tags{}
	for _, t := range strings.Split(s, tagSeparator) {
		t = strings.TrimSpace(t)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// Clean trims every tag and drops empty ones. Never returns nil.
func (t Tags) Clean() Tags {
	out := make(Tags, 0, len(t))
	for _, tag := range t {
		tag = strings.TrimSpace(tag)
		if tag != "" {
			out = append(out, tag)
		}
	}
	return out
}

// Join renders the tags with sep after cleaning.
func (t Tags) Join(sep string) string {
	return strings.Join(t.Clean(), sep)
}

func (t Tags) String() string {
	return t.Join(", ")
}

func (t Tags) Value() (driver.Value, error) {
	return t.Join(tagSeparator), nil
}

func (t *Tags) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*t = Tags{}
	case string:
		*t = ParseTags(v)
	case []byte:
		*t = ParseTags(string(v))
	default:
		return fmt.Errorf("tags: unsupported column type %T", src)
	}
	return nil
}

func (t Tags) MarshalJSON() ([]byte, error) {
	return json.Marshal([]string(t.Clean()))
}

// UnmarshalJSON accepts either a JSON array of strings or a comma separated string.
func (t *Tags) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*t = Tags(list).Clean()
		return nil
	}

	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("tags: expected array or string: %w", err)
	}
	if s == nil {
		*t = Tags{}
		return nil
	}
	*t = ParseTags(*s)
	return nil
}
