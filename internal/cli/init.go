package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/andywolf/speclinear/internal/cli/wizard"
	"github.com/andywolf/speclinear/internal/linear"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a team config from a team's labels, states and statuses",
	Long: `Fetch a team's labels and workflow states plus the workspace's project
statuses, and write them as a team config mapping names to ids.

The format follows the file extension: .json, .yaml/.yml or .toml.

Example:
  speclinear init --team TEAM_ID
  speclinear init --team TEAM_ID --output linear.toml --interactive`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		force, _ := cmd.Flags().GetBool("force")
		if _, err := os.Stat(output); err == nil && !force {
			return fmt.Errorf("config file already exists at %s (use --force to overwrite)", output)
		}

		return withSession(cmd, func(ctx context.Context, s *session) error {
			team, _ := cmd.Flags().GetString("team")
			interactive, _ := cmd.Flags().GetBool("interactive")
			return initTeamConfig(ctx, s, team, output, interactive)
		})
	},
}

func init() {
	rootCmd.AddCommand(initCmd)

	initCmd.Flags().StringP("output", "o", "linear-config.json", "Team config file to write")
	initCmd.Flags().Bool("force", false, "Overwrite an existing file")
	initCmd.Flags().BoolP("interactive", "i", false, "Choose which names to keep")
}

// interactiveSelect is replaced in tests.
var interactiveSelect = func(team *linear.Team, statuses []linear.ProjectStatus) (*wizard.Selection, error) {
	ok, err := wizard.ConfirmTeam(team, statuses)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	return wizard.SelectNames(team, statuses)
}

func initTeamConfig(ctx context.Context, s *session, team, output string, interactive bool) error {
	teamID, err := s.teamID(team)
	if err != nil {
		return err
	}

	t, err := s.queries.GetTeam(ctx, teamID)
	if err != nil {
		return err
	}
	statuses, err := s.queries.GetProjectStatuses(ctx)
	if err != nil {
		return err
	}

	cfg := linear.ConfigFromTeam(t, statuses)
	if interactive {
		sel, err := interactiveSelect(t, statuses)
		if err != nil {
			return err
		}
		if sel == nil {
			return s.out.Message("Aborted; nothing written.")
		}
		sel.Apply(cfg)
	}

	if err := linear.WriteConfig(output, cfg); err != nil {
		return err
	}
	return s.out.Message("Wrote %s: %d labels, %d states, %d project statuses",
		output, len(cfg.Labels), len(cfg.States), len(cfg.ProjectStatuses))
}
