// Package sqlite implements the SQLite document store for castlists.
// This file holds the schema DDL.
package sqlite

// Schema DDL for all tables. Castlists and tribes are scoped by workspace;
// seasons and groups are shared registries.
const (
	createCastlists = `CREATE TABLE castlists (
    workspace_id TEXT NOT NULL,
    castlist_id TEXT NOT NULL,
    name TEXT NOT NULL,
    castlist_type TEXT NOT NULL,
    season_id TEXT,
    created_at TEXT NOT NULL,
    created_by TEXT NOT NULL,
    modified_at TEXT NOT NULL,
    modified_by TEXT NOT NULL,
    settings TEXT,
    metadata TEXT,
    rankings TEXT,
    PRIMARY KEY (workspace_id, castlist_id)
);`

	createTribes = `CREATE TABLE tribes (
    workspace_id TEXT NOT NULL,
    tribe_id TEXT NOT NULL,
    name TEXT,
    emoji TEXT,
    color TEXT,
    castlist TEXT,
    castlist_id TEXT,
    castlist_ids TEXT,
    tribe_type TEXT,
    rankings TEXT,
    PRIMARY KEY (workspace_id, tribe_id)
);`

	createSeasons = `CREATE TABLE seasons (
    season_id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    created_at TEXT NOT NULL
);`

	createApplications = `CREATE TABLE applications (
    season_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    status TEXT NOT NULL,
    applied_at TEXT NOT NULL,
    PRIMARY KEY (season_id, participant_id),
    FOREIGN KEY (season_id) REFERENCES seasons(season_id)
);`

	createGroups = `CREATE TABLE role_groups (
    group_id TEXT PRIMARY KEY,
    name TEXT NOT NULL
);`

	createGroupMembers = `CREATE TABLE group_members (
    group_id TEXT NOT NULL,
    participant_id TEXT NOT NULL,
    ordinal INTEGER NOT NULL,
    PRIMARY KEY (group_id, participant_id),
    FOREIGN KEY (group_id) REFERENCES role_groups(group_id)
);`
)

// Index DDL for common queries.
const (
	idxCastlistsSeason     = `CREATE INDEX idx_castlists_season ON castlists(season_id);`
	idxApplicationsStatus  = `CREATE INDEX idx_applications_status ON applications(season_id, status);`
	idxGroupMembersOrdinal = `CREATE INDEX idx_group_members_ordinal ON group_members(group_id, ordinal);`
)

// schemaDDL lists all CREATE TABLE statements in dependency order.
var schemaDDL = []string{
	createCastlists,
	createTribes,
	createSeasons,
	createApplications,
	createGroups,
	createGroupMembers,
}

// indexDDL lists all CREATE INDEX statements.
var indexDDL = []string{
	idxCastlistsSeason,
	idxApplicationsStatus,
	idxGroupMembersOrdinal,
}
