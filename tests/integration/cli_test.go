package integration

import (
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// TestMain builds the castlists binary once for the whole package.
func TestMain(m *testing.M) {
	dir, err := os.MkdirTemp("", "castlists-test-*")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	castlistsBin, buildErr = buildBinary(dir)

	code := m.Run()
	os.RemoveAll(dir)
	os.Exit(code)
}

func TestCLIExitCodes(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("init")

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"version", []string{"version"}, 0},
		{"list", []string{"list"}, 0},
		{"show unknown castlist", []string{"show", "castlist_404"}, 1},
		{"missing argument", []string{"show"}, 1},
		{"invalid type", []string{"create", "--name", "X", "--type", "nope"}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := env.Run(tt.args...)
			assert.Equal(t, tt.want, res.ExitCode, res.Stderr)
		})
	}
}

// TestLegacyMigrationLifecycle walks a workspace from legacy tribe tags to
// real castlists and back to an empty state.
func TestLegacyMigrationLifecycle(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("init")

	env.MustRun("tribe", "add", "Red", "--id", "t-red", "--tag", "Jury")
	env.MustRun("tribe", "add", "Blue", "--id", "t-blue", "--tag", "Jury")
	env.MustRun("tribe", "add", "Gold", "--id", "t-gold", "--tag", "default")

	vid := virtual.EncodeVirtualID("Jury")
	list := ParseJSON[[]types.Castlist](t, env.MustRun("list", "--json").Stdout)
	require.Len(t, list, 2)

	stats := ParseJSON[virtual.MigrationStats](t, env.MustRun("stats", "--json").Stdout)
	assert.Equal(t, 0, stats.RealCount)
	assert.Equal(t, 2, stats.VirtualCount)
	assert.Equal(t, 3, stats.LegacyTribes)

	id := strings.TrimSpace(env.MustRun("materialize", vid).Stdout)
	require.True(t, strings.HasPrefix(id, "castlist_"), id)

	// Materializing again returns the same castlist.
	again := strings.TrimSpace(env.MustRun("materialize", vid).Stdout)
	assert.Equal(t, id, again)

	env.MustRun("update", id, "--name", "Jury Room")
	tribes := ParseJSON[[]types.Tribe](t, env.MustRun("tribe", "list", "--json").Stdout)
	require.Len(t, tribes, 3)
	for _, tr := range tribes {
		if tr.TribeID == "t-gold" {
			assert.Equal(t, "default", tr.Castlist)
			continue
		}
		assert.Equal(t, []string{id}, tr.CastlistIDs, tr.TribeID)
		assert.Equal(t, "Jury Room", tr.Castlist, tr.TribeID)
	}

	env.MustRun("link", "t-gold", id)
	linked := ParseJSON[[]string](t, env.MustRun("tribes", id, "--json").Stdout)
	assert.Equal(t, []string{"t-blue", "t-gold", "t-red"}, linked)

	del := ParseJSON[map[string]any](t, env.MustRun("delete", id, "--json").Stdout)
	assert.Equal(t, true, del["success"])
	assert.EqualValues(t, 3, del["cleanedCount"])

	// t-gold keeps its default membership after the cascade.
	onDefault := ParseJSON[[]string](t, env.MustRun("tribes", types.DefaultCastlistID, "--json").Stdout)
	assert.Equal(t, []string{"t-gold"}, onDefault)

	stats = ParseJSON[virtual.MigrationStats](t, env.MustRun("stats", "--json").Stdout)
	assert.Equal(t, 0, stats.RealCount)
	assert.Equal(t, 2, stats.UnlinkedTribes)
}

func TestImportsFromRegistry(t *testing.T) {
	env := NewTestEnv(t)
	env.MustRun("init")

	env.MustRun("season", "add", "s7", "Season Seven")
	for _, p := range []string{"ann", "bob", "cat"} {
		env.MustRun("season", "accept", "s7", p)
	}
	c := ParseJSON[types.Castlist](t, env.MustRun("import", "season", "s7", "--json").Stdout)
	assert.Equal(t, "Season s7", c.Name)
	assert.Equal(t, 3, c.Rankings["cat"].Placement)

	env.MustRun("group", "add", "hosts", "Hosts")
	env.MustRun("group", "member", "hosts", "zed", "amy")
	r := ParseJSON[types.Castlist](t, env.MustRun("import", "role", "hosts", "--name", "Host Team", "--json").Stdout)
	assert.Equal(t, "Host Team", r.Name)
	assert.Equal(t, 1, r.Rankings["zed"].Placement)
	assert.Equal(t, 2, r.Rankings["amy"].Placement)
}
