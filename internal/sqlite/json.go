// This file converts between domain types and SQLite row values. Nested
// fields are stored as JSON text; timestamps as RFC 3339 strings.
package sqlite

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// encodeJSONColumn returns v as JSON text, or nil for an empty value so the
// column stays NULL.
func encodeJSONColumn(v any, empty bool) (any, error) {
	if empty {
		return nil, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// decodeJSONColumn unmarshals a nullable JSON text column into dst.
func decodeJSONColumn(col sql.NullString, dst any) error {
	if !col.Valid || col.String == "" {
		return nil
	}
	return json.Unmarshal([]byte(col.String), dst)
}

// timeLayout keeps a fixed-width fraction so stored times sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

// castlistArgs returns the insert arguments for c in castlists column order.
func castlistArgs(workspaceID string, c *types.Castlist) ([]any, error) {
	settings, err := encodeJSONColumn(c.Settings, false)
	if err != nil {
		return nil, fmt.Errorf("encoding settings of %s: %w", c.ID, err)
	}
	metadata, err := encodeJSONColumn(c.Metadata, false)
	if err != nil {
		return nil, fmt.Errorf("encoding metadata of %s: %w", c.ID, err)
	}
	rankings, err := encodeJSONColumn(c.Rankings, c.Rankings == nil)
	if err != nil {
		return nil, fmt.Errorf("encoding rankings of %s: %w", c.ID, err)
	}
	var season any
	if c.SeasonID != nil {
		season = *c.SeasonID
	}
	return []any{
		workspaceID, c.ID, c.Name, c.Type, season,
		formatTime(c.CreatedAt), c.CreatedBy, formatTime(c.ModifiedAt), c.ModifiedBy,
		settings, metadata, rankings,
	}, nil
}

// scanCastlist reads one castlists row selected in column order.
func scanCastlist(rows *sql.Rows) (*types.Castlist, error) {
	var (
		c                   types.Castlist
		workspaceID         string
		season              sql.NullString
		createdAt, modified string
		settings, metadata  sql.NullString
		rankings            sql.NullString
	)
	if err := rows.Scan(&workspaceID, &c.ID, &c.Name, &c.Type, &season,
		&createdAt, &c.CreatedBy, &modified, &c.ModifiedBy,
		&settings, &metadata, &rankings); err != nil {
		return nil, fmt.Errorf("scanning castlist: %w", err)
	}
	if season.Valid {
		s := season.String
		c.SeasonID = &s
	}
	c.CreatedAt = parseTime(createdAt)
	c.ModifiedAt = parseTime(modified)
	c.Settings = types.DefaultSettings()
	if err := decodeJSONColumn(settings, &c.Settings); err != nil {
		return nil, fmt.Errorf("decoding settings of %s: %w", c.ID, types.ErrInvalidData)
	}
	if err := decodeJSONColumn(metadata, &c.Metadata); err != nil {
		return nil, fmt.Errorf("decoding metadata of %s: %w", c.ID, types.ErrInvalidData)
	}
	if err := decodeJSONColumn(rankings, &c.Rankings); err != nil {
		return nil, fmt.Errorf("decoding rankings of %s: %w", c.ID, types.ErrInvalidData)
	}
	return &c, nil
}

// tribeArgs returns the insert arguments for t in tribes column order.
func tribeArgs(workspaceID string, t *types.Tribe) ([]any, error) {
	ids, err := encodeJSONColumn(t.CastlistIDs, len(t.CastlistIDs) == 0)
	if err != nil {
		return nil, fmt.Errorf("encoding castlist ids of %s: %w", t.TribeID, err)
	}
	rankings, err := encodeJSONColumn(t.Rankings, t.Rankings == nil)
	if err != nil {
		return nil, fmt.Errorf("encoding rankings of %s: %w", t.TribeID, err)
	}
	return []any{
		workspaceID, t.TribeID, nullable(t.Name), nullable(t.Emoji), nullable(t.Color),
		nullable(t.Castlist), nullable(t.CastlistID), ids, nullable(t.Type), rankings,
	}, nil
}

// scanTribe reads one tribes row selected in column order.
func scanTribe(rows *sql.Rows) (*types.Tribe, error) {
	var (
		t                          types.Tribe
		name, emoji, color         sql.NullString
		castlist, castlistID, kind sql.NullString
		ids, rankings              sql.NullString
	)
	if err := rows.Scan(&t.WorkspaceID, &t.TribeID, &name, &emoji, &color,
		&castlist, &castlistID, &ids, &kind, &rankings); err != nil {
		return nil, fmt.Errorf("scanning tribe: %w", err)
	}
	t.Name = name.String
	t.Emoji = emoji.String
	t.Color = color.String
	t.Castlist = castlist.String
	t.CastlistID = castlistID.String
	t.Type = kind.String
	if err := decodeJSONColumn(ids, &t.CastlistIDs); err != nil {
		return nil, fmt.Errorf("decoding castlist ids of %s: %w", t.TribeID, types.ErrInvalidData)
	}
	if len(t.CastlistIDs) == 0 {
		t.CastlistIDs = nil
	}
	if err := decodeJSONColumn(rankings, &t.Rankings); err != nil {
		return nil, fmt.Errorf("decoding rankings of %s: %w", t.TribeID, types.ErrInvalidData)
	}
	return &t, nil
}
