// This file maps JSONL files to SQLite tables and moves rows between them:
// loading every file at attach, and persisting one table back to its file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// tableFile describes how one SQLite table round-trips through its JSONL
// file. JSON columns hold nested objects in the file and text in SQLite.
type tableFile struct {
	file        string
	table       string
	columns     []string
	jsonColumns []string
	orderBy     string
}

// tableFiles lists every table in load order: referenced tables load before
// the tables that reference them.
var tableFiles = []tableFile{
	{
		file:  castlistsJSONL,
		table: "castlists",
		columns: []string{
			"workspace_id", "castlist_id", "name", "castlist_type", "season_id",
			"created_at", "created_by", "modified_at", "modified_by",
			"settings", "metadata", "rankings",
		},
		jsonColumns: []string{"settings", "metadata", "rankings"},
		orderBy:     "workspace_id, castlist_id",
	},
	{
		file:  tribesJSONL,
		table: "tribes",
		columns: []string{
			"workspace_id", "tribe_id", "name", "emoji", "color",
			"castlist", "castlist_id", "castlist_ids", "tribe_type", "rankings",
		},
		jsonColumns: []string{"castlist_ids", "rankings"},
		orderBy:     "workspace_id, tribe_id",
	},
	{
		file:    seasonsJSONL,
		table:   "seasons",
		columns: []string{"season_id", "name", "created_at"},
		orderBy: "season_id",
	},
	{
		file:    applicationsJSONL,
		table:   "applications",
		columns: []string{"season_id", "participant_id", "status", "applied_at"},
		orderBy: "season_id, applied_at, participant_id",
	},
	{
		file:    groupsJSONL,
		table:   "role_groups",
		columns: []string{"group_id", "name"},
		orderBy: "group_id",
	},
	{
		file:    groupMembersJSONL,
		table:   "group_members",
		columns: []string{"group_id", "participant_id", "ordinal"},
		orderBy: "group_id, ordinal, participant_id",
	},
}

func tableFileFor(file string) (tableFile, bool) {
	i := slices.IndexFunc(tableFiles, func(tf tableFile) bool { return tf.file == file })
	if i < 0 {
		return tableFile{}, false
	}
	return tableFiles[i], true
}

// loadAllJSONL reads each JSONL file from dataDir and inserts records into
// the corresponding SQLite tables. Loading is transactional: all succeed or
// the database remains empty. Malformed lines and records that violate
// constraints are skipped; unknown fields are ignored.
func loadAllJSONL(db *sql.DB, dataDir string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("beginning load transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec("PRAGMA foreign_keys = OFF"); err != nil {
		return fmt.Errorf("disabling foreign keys for load: %w", err)
	}

	for _, tf := range tableFiles {
		records, err := readJSONL(filepath.Join(dataDir, tf.file))
		if err != nil {
			return fmt.Errorf("reading %s: %w", tf.file, err)
		}
		if len(records) == 0 {
			continue
		}
		if err := insertRecords(tx, tf, records); err != nil {
			return fmt.Errorf("loading %s into %s: %w", tf.file, tf.table, err)
		}
	}

	if _, err := tx.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("re-enabling foreign keys: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing load transaction: %w", err)
	}
	return nil
}

// insertRecords inserts parsed JSONL records into tf's table. Only the
// mapped columns are extracted, so fields added by later versions do not
// cause errors. Nested values are stored as JSON text.
func insertRecords(tx *sql.Tx, tf tableFile, records []json.RawMessage) error {
	stmt, err := tx.Prepare(insertSQL(tf))
	if err != nil {
		return fmt.Errorf("preparing insert for %s: %w", tf.table, err)
	}
	defer stmt.Close()

	for _, rec := range records {
		var obj map[string]any
		if err := json.Unmarshal(rec, &obj); err != nil {
			continue
		}
		args := make([]any, len(tf.columns))
		for i, col := range tf.columns {
			switch v := obj[col].(type) {
			case map[string]any, []any:
				b, err := json.Marshal(v)
				if err != nil {
					continue
				}
				args[i] = string(b)
			default:
				args[i] = v
			}
		}
		if _, err := stmt.Exec(args...); err != nil {
			continue
		}
	}
	return nil
}

// readTableRecords reads every row of tf's table as a JSONL record. JSON
// columns are embedded as nested values rather than quoted strings.
func readTableRecords(ctx context.Context, q querier, tf tableFile) ([]json.RawMessage, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		strings.Join(tf.columns, ", "), tf.table, tf.orderBy)
	rows, err := q.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("reading %s for JSONL: %w", tf.table, err)
	}
	defer rows.Close()

	var records []json.RawMessage
	for rows.Next() {
		vals := make([]any, len(tf.columns))
		ptrs := make([]any, len(tf.columns))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scanning %s for JSONL: %w", tf.table, err)
		}
		obj := make(map[string]any, len(tf.columns))
		for i, col := range tf.columns {
			v := vals[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			if s, ok := v.(string); ok && slices.Contains(tf.jsonColumns, col) && json.Valid([]byte(s)) {
				v = json.RawMessage(s)
			}
			obj[col] = v
		}
		rec, err := json.Marshal(obj)
		if err != nil {
			return nil, fmt.Errorf("encoding %s record: %w", tf.table, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}
