package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/castlists/pkg/types"
)

func newLinkCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "link <tribe-id> <castlist-id>",
		Short: "Add a tribe to a castlist",
		Long:  "Adds the tribe to the castlist. Linking an already linked tribe succeeds without changes.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				linked, err := s.manager.LinkTribeToCastlist(cmd.Context(), s.workspace, args[0], args[1])
				if err != nil {
					return err
				}
				if !linked {
					return userError(fmt.Errorf("link %s to %s: %w", args[0], args[1], types.ErrNotFound))
				}
				if s.jsonMode {
					return printJSON(s.out, map[string]any{
						"tribeId":    args[0],
						"castlistId": args[1],
						"linked":     true,
					})
				}
				fmt.Fprintf(s.out, "Linked %s\n", args[0])
				return nil
			})
		},
	}
}

func newUnlinkCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "unlink <tribe-id> [castlist-id]",
		Short: "Remove a tribe from a castlist",
		Long: "Removes the tribe from one castlist. Without a castlist id the tribe\n" +
			"is detached from everything and falls back to the default castlist.",
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			castlistID := ""
			if len(args) == 2 {
				castlistID = args[1]
			}
			return withSession(cmd, f, func(s *session) error {
				unlinked, err := s.manager.UnlinkTribeFromCastlist(cmd.Context(), s.workspace, args[0], castlistID)
				if err != nil {
					return err
				}
				if s.jsonMode {
					return printJSON(s.out, map[string]any{
						"tribeId":    args[0],
						"castlistId": castlistID,
						"unlinked":   unlinked,
					})
				}
				if !unlinked {
					fmt.Fprintln(s.out, "No changes")
					return nil
				}
				fmt.Fprintf(s.out, "Unlinked %s\n", args[0])
				return nil
			})
		},
	}
}
