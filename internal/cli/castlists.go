package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

func newListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List real and virtual castlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				list, err := s.manager.ListCastlists(cmd.Context(), s.workspace)
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, list)
				}
				printCastlistTable(s.out, list)
				return nil
			})
		},
	}
}

func newShowCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "show <castlist-id>",
		Short: "Show a castlist and the tribes linked to it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				ctx := cmd.Context()
				c, err := s.manager.GetCastlist(ctx, s.workspace, args[0])
				if err != nil {
					return err
				}
				if c == nil {
					return userError(fmt.Errorf("castlist %s: %w", args[0], types.ErrNotFound))
				}
				tribes, err := s.manager.GetTribesUsingCastlist(ctx, s.workspace, args[0])
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, struct {
						*types.Castlist
						Tribes []string `json:"tribes"`
					}{c, tribes})
				}
				printCastlist(s.out, c, tribes)
				return nil
			})
		},
	}
}

func newCreateCmd(f *rootFlags) *cobra.Command {
	var (
		name, castlistType, season string
		emoji, description, sort   string
	)
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a castlist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := types.CastlistConfig{
				Name:     name,
				Type:     castlistType,
				SeasonID: season,
			}
			if emoji != "" || description != "" {
				cfg.Metadata = &types.Metadata{Emoji: emoji, Description: description}
			}
			if sort != "" {
				settings := types.DefaultSettings()
				settings.SortStrategy = sort
				cfg.Settings = &settings
			}
			return withSession(cmd, f, func(s *session) error {
				c, err := s.manager.CreateCastlist(cmd.Context(), s.workspace, cfg)
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, c)
				}
				fmt.Fprintln(s.out, c.ID)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&name, "name", "", "castlist name (required)")
	fl.StringVar(&castlistType, "type", types.CastlistTypeCustom, "castlist type")
	fl.StringVar(&season, "season", "", "associated season id")
	fl.StringVar(&emoji, "emoji", "", "display emoji")
	fl.StringVar(&description, "description", "", "description")
	fl.StringVar(&sort, "sort", "", "sort strategy")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newUpdateCmd(f *rootFlags) *cobra.Command {
	var (
		name, castlistType, season        string
		emoji, description, sort, visible string
		clearSeason, showRankings         bool
		maxDisplay                        int
	)
	cmd := &cobra.Command{
		Use:   "update <castlist-id>",
		Short: "Update a castlist",
		Long: "Applies only the flags that are given. Updating the default castlist\n" +
			"materializes it first; other virtual castlists must be materialized explicitly.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			fl := cmd.Flags()
			var patch types.CastlistPatch
			if fl.Changed("name") {
				patch.Name = &name
			}
			if fl.Changed("type") {
				patch.Type = &castlistType
			}
			if fl.Changed("season") {
				patch.SeasonID = &season
			}
			patch.ClearSeason = clearSeason
			if fl.Changed("sort") || fl.Changed("show-rankings") || fl.Changed("max-display") || fl.Changed("visibility") {
				patch.Settings = &types.SettingsPatch{}
				if fl.Changed("sort") {
					patch.Settings.SortStrategy = &sort
				}
				if fl.Changed("show-rankings") {
					patch.Settings.ShowRankings = &showRankings
				}
				if fl.Changed("max-display") {
					patch.Settings.MaxDisplay = &maxDisplay
				}
				if fl.Changed("visibility") {
					patch.Settings.Visibility = &visible
				}
			}
			if fl.Changed("emoji") || fl.Changed("description") {
				patch.Metadata = &types.MetadataPatch{}
				if fl.Changed("emoji") {
					patch.Metadata.Emoji = &emoji
				}
				if fl.Changed("description") {
					patch.Metadata.Description = &description
				}
			}
			return withSession(cmd, f, func(s *session) error {
				c, err := s.manager.UpdateCastlist(cmd.Context(), s.workspace, args[0], patch)
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, c)
				}
				fmt.Fprintf(s.out, "Updated %s\n", c.ID)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&name, "name", "", "new name")
	fl.StringVar(&castlistType, "type", "", "new type")
	fl.StringVar(&season, "season", "", "associate a season id")
	fl.BoolVar(&clearSeason, "clear-season", false, "remove the season association")
	fl.StringVar(&sort, "sort", "", "sort strategy")
	fl.BoolVar(&showRankings, "show-rankings", false, "show rankings")
	fl.IntVar(&maxDisplay, "max-display", types.DefaultMaxDisplay, "tribes shown per page")
	fl.StringVar(&visible, "visibility", "", "public or private")
	fl.StringVar(&emoji, "emoji", "", "display emoji")
	fl.StringVar(&description, "description", "", "description")
	cmd.MarkFlagsMutuallyExclusive("season", "clear-season")
	return cmd
}

func newDeleteCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <castlist-id>",
		Short: "Delete a castlist and unlink every tribe from it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				res := s.manager.DeleteCastlist(cmd.Context(), s.workspace, args[0])
				if s.jsonMode {
					if err := printJSON(s.out, res); err != nil {
						return err
					}
				} else if res.Success {
					fmt.Fprintf(s.out, "Deleted %s (%d tribes cleaned)\n", args[0], res.CleanedCount)
				}
				if !res.Success {
					err := res.Err
					if err == nil {
						err = errors.New(res.Error)
					}
					return err
				}
				return nil
			})
		},
	}
}

func newTribesCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "tribes <castlist-id>",
		Short: "List the tribes linked to a castlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				ids, err := s.manager.GetTribesUsingCastlist(cmd.Context(), s.workspace, args[0])
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, ids)
				}
				for _, id := range ids {
					fmt.Fprintln(s.out, id)
				}
				return nil
			})
		},
	}
}

func newMaterializeCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "materialize <virtual-id>",
		Short: "Promote a virtual castlist to a real one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				id, err := s.manager.MaterializeCastlist(cmd.Context(), s.workspace, args[0], s.actor)
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, map[string]string{"virtualId": args[0], "id": id})
				}
				fmt.Fprintln(s.out, id)
				return nil
			})
		},
	}
}

func newStatsCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Report migration progress from legacy tags to real castlists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				st, err := s.manager.GetMigrationStats(cmd.Context(), s.workspace)
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, st)
				}
				fmt.Fprintf(s.out, "Castlists: %d (%d real, %d virtual, %d materialized)\n",
					st.TotalCastlists, st.RealCount, st.VirtualCount, st.MaterializedCount)
				fmt.Fprintf(s.out, "Tribes: %d legacy, %d single id, %d multi, %d unlinked\n",
					st.LegacyTribes, st.SingleIDTribes, st.MultiTribes, st.UnlinkedTribes)
				return nil
			})
		},
	}
}

func newSearchCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "search <term>",
		Short: "Find castlists by name, description or type",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				list, err := s.manager.SearchCastlists(cmd.Context(), s.workspace, args[0])
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, list)
				}
				printCastlistTable(s.out, list)
				return nil
			})
		},
	}
}
