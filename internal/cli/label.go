package cli

import (
	"context"

	"github.com/andywolf/speclinear/internal/linear"
	"github.com/spf13/cobra"
)

var labelCmd = &cobra.Command{
	Use:   "label",
	Short: "Manage team labels",
}

var labelCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a label in a team and print its id",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			team, _ := cmd.Flags().GetString("team")
			teamID, err := s.teamID(team)
			if err != nil {
				return err
			}
			color, _ := cmd.Flags().GetString("color")
			description, _ := cmd.Flags().GetString("description")

			id, err := s.mutations.CreateLabel(ctx, linear.CreateLabelInput{
				TeamID:      teamID,
				Name:        args[0],
				Color:       color,
				Description: description,
			})
			if err != nil {
				return err
			}
			return s.out.Message("Created label %s %s", args[0], id)
		})
	},
}

func init() {
	rootCmd.AddCommand(labelCmd)
	labelCmd.AddCommand(labelCreateCmd)

	labelCreateCmd.Flags().String("color", "", "Hex color, e.g. #5E6AD2")
	labelCreateCmd.Flags().String("description", "", "Label description")
}
