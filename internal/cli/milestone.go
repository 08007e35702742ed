package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/andywolf/speclinear/internal/linear"
	"github.com/spf13/cobra"
)

var milestoneCmd = &cobra.Command{
	Use:   "milestone",
	Short: "Manage project milestones",
}

var milestoneCreateCmd = &cobra.Command{
	Use:   "create <project-id> <name>",
	Short: "Create a milestone in a project",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			in, err := milestoneInput(cmd, args[0], args[1])
			if err != nil {
				return err
			}
			m, err := s.mutations.CreateMilestone(ctx, in)
			if err != nil {
				return err
			}
			return s.out.Milestone(m)
		})
	},
}

func init() {
	rootCmd.AddCommand(milestoneCmd)
	milestoneCmd.AddCommand(milestoneCreateCmd)

	f := milestoneCreateCmd.Flags()
	f.String("description", "", "Milestone description")
	f.Float64("sort-order", 0, "Position among the project's milestones")
	f.String("target-date", "", "Target date (YYYY-MM-DD)")
}

func milestoneInput(cmd *cobra.Command, projectID, name string) (linear.CreateMilestoneInput, error) {
	f := cmd.Flags()
	in := linear.CreateMilestoneInput{ProjectID: projectID, Name: name}
	in.Description, _ = f.GetString("description")

	if f.Changed("sort-order") {
		v, _ := f.GetFloat64("sort-order")
		in.SortOrder = &v
	}

	in.TargetDate, _ = f.GetString("target-date")
	if in.TargetDate != "" {
		if _, err := time.Parse("2006-01-02", in.TargetDate); err != nil {
			return in, fmt.Errorf("invalid target date %q: want YYYY-MM-DD", in.TargetDate)
		}
	}
	return in, nil
}
