package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

// printJSON writes v as indented JSON followed by a newline.
func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	fmt.Fprintln(w, string(data))
	return nil
}

func virtualMark(c *types.Castlist) string {
	if c.IsVirtual {
		return "yes"
	}
	return "no"
}

// printCastlistTable writes one row per castlist.
func printCastlistTable(w io.Writer, list []*types.Castlist) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tTYPE\tVIRTUAL")
	for _, c := range list {
		name := c.Name
		if c.Metadata.Emoji != "" {
			name = c.Metadata.Emoji + " " + name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.ID, name, c.Type, virtualMark(c))
	}
	tw.Flush()
}

// printCastlist writes the detail view of c and the tribes linked to it.
func printCastlist(w io.Writer, c *types.Castlist, tribes []string) {
	tw := tabwriter.NewWriter(w, 0, 4, 1, ' ', 0)
	fmt.Fprintf(tw, "ID:\t%s\n", c.ID)
	fmt.Fprintf(tw, "Name:\t%s\n", c.Name)
	fmt.Fprintf(tw, "Type:\t%s\n", c.Type)
	fmt.Fprintf(tw, "Virtual:\t%s\n", virtualMark(c))
	if c.SeasonID != nil {
		fmt.Fprintf(tw, "Season:\t%s\n", *c.SeasonID)
	}
	if c.Metadata.Emoji != "" {
		fmt.Fprintf(tw, "Emoji:\t%s\n", c.Metadata.Emoji)
	}
	if c.Metadata.Description != "" {
		fmt.Fprintf(tw, "Description:\t%s\n", c.Metadata.Description)
	}
	fmt.Fprintf(tw, "Sort:\t%s\n", c.Settings.SortStrategy)
	fmt.Fprintf(tw, "Visibility:\t%s\n", c.Settings.Visibility)
	if c.Metadata.MigratedFrom != "" {
		fmt.Fprintf(tw, "Migrated from:\t%s\n", c.Metadata.MigratedFrom)
	}
	if !c.CreatedAt.IsZero() {
		fmt.Fprintf(tw, "Created:\t%s by %s\n", c.CreatedAt.Format(time.RFC3339), c.CreatedBy)
	}
	if len(c.Rankings) > 0 {
		fmt.Fprintf(tw, "Ranked:\t%d\n", len(c.Rankings))
	}
	if tribes != nil {
		fmt.Fprintf(tw, "Tribes:\t%s\n", strings.Join(tribes, ", "))
	}
	tw.Flush()
}

// printTribeTable writes one row per tribe with its linkage shape.
func printTribeTable(w io.Writer, tribes []*types.Tribe) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSHAPE\tCASTLISTS")
	for _, t := range tribes {
		m := t.Membership()
		linked := m.Tag
		if len(m.IDs) > 0 {
			linked = strings.Join(m.IDs, ",")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", t.TribeID, t.Name, m.Kind, linked)
	}
	tw.Flush()
}
