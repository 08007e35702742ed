package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Inspect a team's workflow states and labels",
}

var teamShowCmd = &cobra.Command{
	Use:   "show [team-id]",
	Short: "Show a team's workflow states and labels",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			explicit, _ := cmd.Flags().GetString("team")
			if len(args) > 0 {
				explicit = args[0]
			}
			id, err := s.teamID(explicit)
			if err != nil {
				return err
			}
			team, err := s.queries.GetTeam(ctx, id)
			if err != nil {
				return err
			}
			return s.out.Team(team)
		})
	},
}

var statusesCmd = &cobra.Command{
	Use:   "statuses",
	Short: "List the workspace's project statuses",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			statuses, err := s.queries.GetProjectStatuses(ctx)
			if err != nil {
				return err
			}
			return s.out.ProjectStatuses(statuses)
		})
	},
}

func init() {
	rootCmd.AddCommand(teamCmd, statusesCmd)
	teamCmd.AddCommand(teamShowCmd)
}
