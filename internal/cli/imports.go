package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/castlists/internal/castlist"
	"github.com/mesh-intelligence/castlists/pkg/types"
)

func newImportCmd(f *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Create castlists from seasons or role groups",
	}
	cmd.AddCommand(newImportSeasonCmd(f), newImportRoleCmd(f))
	return cmd
}

func addImportFlags(cmd *cobra.Command, opts *castlist.ImportOptions) {
	fl := cmd.Flags()
	fl.StringVar(&opts.Name, "name", "", "castlist name")
	fl.StringVar(&opts.Emoji, "emoji", "", "display emoji")
	fl.StringVar(&opts.Description, "description", "", "description")
}

func printImported(s *session, c *types.Castlist) error {
	if s.jsonMode {
		return printJSON(s.out, c)
	}
	fmt.Fprintf(s.out, "%s (%d ranked)\n", c.ID, len(c.Rankings))
	return nil
}

func newImportSeasonCmd(f *rootFlags) *cobra.Command {
	var opts castlist.ImportOptions
	cmd := &cobra.Command{
		Use:   "season <season-id>",
		Short: "Create a season_cast castlist from a season's accepted applicants",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				opts.CreatedBy = s.actor
				c, err := s.manager.ImportFromSeason(cmd.Context(), s.workspace, args[0], opts)
				if err != nil {
					return err
				}
				return printImported(s, c)
			})
		},
	}
	addImportFlags(cmd, &opts)
	return cmd
}

func newImportRoleCmd(f *rootFlags) *cobra.Command {
	var opts castlist.ImportOptions
	cmd := &cobra.Command{
		Use:   "role <group-id>",
		Short: "Create a role_import castlist from a role group's members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withSession(cmd, f, func(s *session) error {
				opts.CreatedBy = s.actor
				c, err := s.manager.ImportFromRole(cmd.Context(), s.workspace, args[0], opts)
				if err != nil {
					return err
				}
				return printImported(s, c)
			})
		},
	}
	addImportFlags(cmd, &opts)
	return cmd
}
