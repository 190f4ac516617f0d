package repository

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/lib/pq"

	"github.com/atinyakov/CragLog/internal/models"
)

// dateColumn scans a calendar day stored as DATE (time.Time from lib/pq)
// or ISO text (SQLite).
type dateColumn struct {
	t *time.Time
}

func (d dateColumn) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		*d.t = time.Time{}
	case time.Time:
		*d.t = models.Day(v)
	case string:
		return d.parse(v)
	case []byte:
		return d.parse(string(v))
	default:
		return fmt.Errorf("scan date: unsupported type %T", src)
	}
	return nil
}

func (d dateColumn) parse(s string) error {
	for _, layout := range []string{models.DateLayout, time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			*d.t = models.Day(t)
			return nil
		}
	}
	return fmt.Errorf("scan date: cannot parse %q", s)
}

// jsonTags stores steepness tags as a JSON array in SQLite.
type jsonTags struct {
	tags *[]string
}

func (j jsonTags) Value() (driver.Value, error) {
	if j.tags == nil || *j.tags == nil {
		return "[]", nil
	}
	b, err := json.Marshal(*j.tags)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (j jsonTags) Scan(src any) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*j.tags = []string{}
		return nil
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		return fmt.Errorf("scan tags: unsupported type %T", src)
	}
	var out []string
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("scan tags: %w", err)
	}
	if out == nil {
		out = []string{}
	}
	*j.tags = out
	return nil
}

// tagsArg returns the driver argument for a tag list.
func (s *SQLStore) tagsArg(tags []models.Steepness) any {
	raw := make([]string, len(tags))
	for i, t := range tags {
		raw[i] = string(t)
	}
	if s.dialect == Postgres {
		return pq.Array(raw)
	}
	return jsonTags{tags: &raw}
}

// tagsDest returns the scan destination for a tag list.
func (s *SQLStore) tagsDest(dst *[]string) sql.Scanner {
	if s.dialect == Postgres {
		return pq.Array(dst)
	}
	return jsonTags{tags: dst}
}

func toSteepness(raw []string) []models.Steepness {
	out := make([]models.Steepness, len(raw))
	for i, r := range raw {
		out[i] = models.Steepness(r)
	}
	return out
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
