package castlist

import (
	"context"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// SearchCastlists returns the castlists whose name, description or type
// contains term, ignoring case and diacritics. It searches the union of
// real and virtual castlists; an empty term matches everything.
func (m *Manager) SearchCastlists(ctx context.Context, workspaceID, term string) ([]*types.Castlist, error) {
	needle := foldText(strings.TrimSpace(term))
	var out []*types.Castlist
	err := m.adapter.Read(ctx, workspaceID, func(v *virtual.View) error {
		for _, c := range v.All() {
			if matches(c, needle) {
				out = append(out, c)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	types.SortCastlists(out)
	if out == nil {
		out = []*types.Castlist{}
	}
	return out, nil
}

func matches(c *types.Castlist, needle string) bool {
	if needle == "" {
		return true
	}
	for _, field := range []string{c.Name, c.Metadata.Description, c.Type} {
		if strings.Contains(foldText(field), needle) {
			return true
		}
	}
	return false
}

// foldText decomposes s, strips combining marks and case-folds the rest.
func foldText(s string) string {
	if s == "" {
		return ""
	}
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold())
	out, _, err := transform.String(t, s)
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}
