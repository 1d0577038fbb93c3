package types

import (
	"maps"
	"time"
)

// Castlist types. The type drives creation defaults and how a castlist is
// presented; it never changes linkage semantics.
const (
	CastlistTypeSystem           = "system"
	CastlistTypeLegacy           = "legacy"
	CastlistTypeCustom           = "custom"
	CastlistTypeSeasonCast       = "season_cast"
	CastlistTypeRoleImport       = "role_import"
	CastlistTypeAlumniPlacements = "alumni_placements"
	CastlistTypeWinners          = "winners"
)

var validCastlistTypes = map[string]bool{
	CastlistTypeSystem:           true,
	CastlistTypeLegacy:           true,
	CastlistTypeCustom:           true,
	CastlistTypeSeasonCast:       true,
	CastlistTypeRoleImport:       true,
	CastlistTypeAlumniPlacements: true,
	CastlistTypeWinners:          true,
}

// ValidCastlistType reports whether t is a recognized castlist type.
func ValidCastlistType(t string) bool {
	return validCastlistTypes[t]
}

// Sort strategies understood by the presentation layer.
const (
	SortAlphabetical = "alphabetical"
	SortPlacements   = "placements"
	SortReverseAlpha = "reverse_alpha"
	SortAge          = "age"
	SortTimezone     = "timezone"
)

// Visibility values.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// DefaultMaxDisplay caps the number of tribes rendered per page.
const DefaultMaxDisplay = 25

// Reserved default castlist. The id always resolves; the legacy tag written
// to tribes for it is the literal id, never its display name.
const (
	DefaultCastlistID   = "default"
	DefaultCastlistName = "Active Castlist"
	DefaultCastlistTag  = "default"
)

// Settings controls how a castlist is displayed.
type Settings struct {
	SortStrategy string `json:"sortStrategy"`
	ShowRankings bool   `json:"showRankings"`
	MaxDisplay   int    `json:"maxDisplay"`
	Visibility   string `json:"visibility"`
}

// DefaultSettings returns the settings applied to new and virtual castlists.
func DefaultSettings() Settings {
	return Settings{
		SortStrategy: SortAlphabetical,
		ShowRankings: false,
		MaxDisplay:   DefaultMaxDisplay,
		Visibility:   VisibilityPublic,
	}
}

// Metadata carries descriptive fields. Extra holds free-form keys that
// callers attach; they are merged key by key on update.
type Metadata struct {
	Description  string         `json:"description,omitempty"`
	Emoji        string         `json:"emoji,omitempty"`
	MigratedFrom string         `json:"migratedFrom,omitempty"`
	MigrationAt  *time.Time     `json:"migrationDate,omitempty"`
	Extra        map[string]any `json:"extra,omitempty"`
}

// Ranking is a participant's standing inside a castlist.
type Ranking struct {
	Placement int            `json:"placement"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// Castlist is a named, configurable display grouping of tribes. Real
// castlists are persisted in the workspace; virtual ones are derived from
// legacy tribe tags and carry IsVirtual.
type Castlist struct {
	ID         string             `json:"id"`
	Name       string             `json:"name"`
	Type       string             `json:"type"`
	SeasonID   *string            `json:"seasonId,omitempty"`
	CreatedAt  time.Time          `json:"createdAt"`
	CreatedBy  string             `json:"createdBy"`
	ModifiedAt time.Time          `json:"modifiedAt"`
	ModifiedBy string             `json:"modifiedBy"`
	Settings   Settings           `json:"settings"`
	Metadata   Metadata           `json:"metadata"`
	Rankings   map[string]Ranking `json:"rankings,omitempty"`
	IsVirtual  bool               `json:"isVirtual,omitempty"`
}

// Clone returns a deep copy so callers can mutate without touching the
// workspace that owns c.
func (c *Castlist) Clone() *Castlist {
	if c == nil {
		return nil
	}
	cp := *c
	if c.SeasonID != nil {
		s := *c.SeasonID
		cp.SeasonID = &s
	}
	if c.Metadata.MigrationAt != nil {
		at := *c.Metadata.MigrationAt
		cp.Metadata.MigrationAt = &at
	}
	cp.Metadata.Extra = maps.Clone(c.Metadata.Extra)
	if c.Rankings != nil {
		cp.Rankings = make(map[string]Ranking, len(c.Rankings))
		for k, r := range c.Rankings {
			r.Extra = maps.Clone(r.Extra)
			cp.Rankings[k] = r
		}
	}
	return &cp
}

// DisplayName is the string written into a tribe's legacy castlist field
// when this castlist is the tribe's first membership.
func (c *Castlist) DisplayName() string {
	if c.ID == DefaultCastlistID {
		return DefaultCastlistTag
	}
	return c.Name
}

// CastlistConfig describes a castlist to create.
type CastlistConfig struct {
	Name      string
	Type      string
	SeasonID  string
	CreatedBy string
	Settings  *Settings
	Metadata  *Metadata
	Rankings  map[string]Ranking
}

// SettingsPatch changes individual settings; nil fields are left alone.
type SettingsPatch struct {
	SortStrategy *string
	ShowRankings *bool
	MaxDisplay   *int
	Visibility   *string
}

// MetadataPatch changes individual metadata fields; Extra keys are merged
// into the existing map.
type MetadataPatch struct {
	Description *string
	Emoji       *string
	Extra       map[string]any
}

// CastlistPatch is a partial update. Name and Type replace; SeasonID sets the
// association and ClearSeason removes it; Settings and Metadata merge
// shallowly; a non-nil Rankings replaces the whole map.
type CastlistPatch struct {
	Name        *string
	Type        *string
	SeasonID    *string
	ClearSeason bool
	Settings    *SettingsPatch
	Metadata    *MetadataPatch
	Rankings    map[string]Ranking
	ModifiedBy  string
}

// Apply mutates c according to p and stamps the modification fields.
func (p CastlistPatch) Apply(c *Castlist, now time.Time) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.ClearSeason {
		c.SeasonID = nil
	} else if p.SeasonID != nil {
		s := *p.SeasonID
		c.SeasonID = &s
	}
	if s := p.Settings; s != nil {
		if s.SortStrategy != nil {
			c.Settings.SortStrategy = *s.SortStrategy
		}
		if s.ShowRankings != nil {
			c.Settings.ShowRankings = *s.ShowRankings
		}
		if s.MaxDisplay != nil {
			c.Settings.MaxDisplay = *s.MaxDisplay
		}
		if s.Visibility != nil {
			c.Settings.Visibility = *s.Visibility
		}
	}
	if m := p.Metadata; m != nil {
		if m.Description != nil {
			c.Metadata.Description = *m.Description
		}
		if m.Emoji != nil {
			c.Metadata.Emoji = *m.Emoji
		}
		if len(m.Extra) > 0 {
			if c.Metadata.Extra == nil {
				c.Metadata.Extra = make(map[string]any, len(m.Extra))
			}
			maps.Copy(c.Metadata.Extra, m.Extra)
		}
	}
	if p.Rankings != nil {
		c.Rankings = maps.Clone(p.Rankings)
	}
	actor := p.ModifiedBy
	if actor == "" {
		actor = DefaultActor
	}
	c.ModifiedAt = now
	c.ModifiedBy = actor
}

// SequentialRankings assigns placements 1..n to participants in order.
// Duplicate participants keep their first placement.
func SequentialRankings(participants []string) map[string]Ranking {
	rankings := make(map[string]Ranking, len(participants))
	next := 1
	for _, p := range participants {
		if p == "" {
			continue
		}
		if _, ok := rankings[p]; ok {
			continue
		}
		rankings[p] = Ranking{Placement: next}
		next++
	}
	return rankings
}
