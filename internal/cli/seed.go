package cli

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/castlists/internal/virtual"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

// Seeding commands populate the tribes, seasons and role groups that
// castlists are built from.

func newTribeCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tribe",
		Short: "Manage tribes",
	}
	cmd.AddCommand(newTribeAddCmd(f), newTribeListCmd(f))
	return cmd
}

func newTribeAddCmd(f *rootFlags) *cobra.Command {
	var id, tag, emoji string
	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add a tribe, optionally carrying a legacy castlist tag",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := strings.TrimSpace(args[0])
			if name == "" {
				return userError(types.ErrInvalidName)
			}
			tribeID := id
			if tribeID == "" {
				u, err := uuid.NewV7()
				if err != nil {
					return sysError(fmt.Errorf("generate tribe id: %w", err))
				}
				tribeID = u.String()
			}
			return withSession(cmd, f, func(s *session) error {
				var created *types.Tribe
				err := s.manager.Adapter().Transact(cmd.Context(), s.workspace, func(v *virtual.View) (bool, error) {
					ws := v.Workspace()
					if _, ok := ws.Tribes[tribeID]; ok {
						return false, fmt.Errorf("tribe %s already exists: %w", tribeID, types.ErrInvalidID)
					}
					created = &types.Tribe{
						TribeID:     tribeID,
						WorkspaceID: s.workspace,
						Name:        name,
						Emoji:       emoji,
						Castlist:    tag,
					}
					ws.Tribes[tribeID] = created
					return true, nil
				})
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, created)
				}
				fmt.Fprintln(s.out, tribeID)
				return nil
			})
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&id, "id", "", "tribe id (default: generated)")
	fl.StringVar(&tag, "tag", "", "legacy castlist tag")
	fl.StringVar(&emoji, "emoji", "", "display emoji")
	return cmd
}

func newTribeListCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List tribes and their castlist linkage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				var tribes []*types.Tribe
				err := s.manager.Adapter().Read(cmd.Context(), s.workspace, func(v *virtual.View) error {
					ws := v.Workspace()
					for _, id := range ws.SortedTribeIDs() {
						tribes = append(tribes, ws.Tribes[id].Clone())
					}
					return nil
				})
				if err != nil {
					return err
				}
				if tribes == nil {
					tribes = []*types.Tribe{}
				}
				if s.jsonMode {
					return printJSON(s.out, tribes)
				}
				printTribeTable(s.out, tribes)
				return nil
			})
		},
	}
}

func newSeasonCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "season",
		Short: "Manage the season registry",
	}
	cmd.AddCommand(newSeasonAddCmd(f), newSeasonAcceptCmd(f))
	return cmd
}

func newSeasonAddCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <season-id> <name>",
		Short: "Create or rename a season",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				season := types.Season{SeasonID: args[0], Name: args[1], CreatedAt: s.manager.Adapter().Now()}
				if err := s.backend.PutSeason(cmd.Context(), season); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "Season %s saved\n", args[0])
				return nil
			})
		},
	}
}

func newSeasonAcceptCmd(f *rootFlags) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "accept <season-id> <participant-id>",
		Short: "Record a participant's application to a season",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				app := types.Application{
					SeasonID:      args[0],
					ParticipantID: args[1],
					Status:        status,
					AppliedAt:     s.manager.Adapter().Now(),
				}
				if err := s.backend.PutApplication(cmd.Context(), app); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "%s %s for season %s\n", args[1], status, args[0])
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", types.ApplicationAccepted, "pending, accepted or rejected")
	return cmd
}

func newGroupCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "group",
		Short: "Manage role groups",
	}
	cmd.AddCommand(newGroupAddCmd(f), newGroupMemberCmd(f))
	return cmd
}

func newGroupAddCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "add <group-id> <name>",
		Short: "Create or rename a role group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				if err := s.backend.PutGroup(cmd.Context(), types.Group{GroupID: args[0], Name: args[1]}); err != nil {
					return err
				}
				fmt.Fprintf(s.out, "Group %s saved\n", args[0])
				return nil
			})
		},
	}
}

func newGroupMemberCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "member <group-id> <participant-id>...",
		Short: "Add participants to a role group",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				for _, p := range args[1:] {
					if err := s.backend.PutGroupMember(cmd.Context(), args[0], p); err != nil {
						return err
					}
				}
				fmt.Fprintf(s.out, "Added %d members to %s\n", len(args)-1, args[0])
				return nil
			})
		},
	}
}
