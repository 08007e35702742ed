package cli

import (
	"context"

	"github.com/spf13/cobra"
)

var relationCmd = &cobra.Command{
	Use:   "relation",
	Short: "Manage issue relations",
}

var relationBlockCmd = &cobra.Command{
	Use:   "block <blocker> <blocked>",
	Short: "Record that <blocker> blocks <blocked>",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			r, err := s.mutations.CreateBlockingRelation(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return s.out.Relation(r)
		})
	},
}

var blockersCmd = &cobra.Command{
	Use:   "blockers",
	Short: "Inspect the issues blocking an issue",
}

var blockersCheckCmd = &cobra.Command{
	Use:   "check <id-or-identifier>",
	Short: "Report whether every blocker of an issue is done",
	Long: `Report whether every issue blocking the given issue is in a completed or
canceled state. Exits with status 2 when some blocker is still open.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			return checkBlockers(ctx, s, args[0])
		})
	},
}

func init() {
	rootCmd.AddCommand(relationCmd, blockersCmd)
	relationCmd.AddCommand(relationBlockCmd)
	blockersCmd.AddCommand(blockersCheckCmd)
}

func checkBlockers(ctx context.Context, s *session, issueID string) error {
	complete, incomplete, err := s.mutations.CheckBlockersComplete(ctx, issueID)
	if err != nil {
		return err
	}
	if incomplete == nil {
		incomplete = []string{}
	}
	if err := s.out.Blockers(blockerReport{Issue: issueID, Complete: complete, Incomplete: incomplete}); err != nil {
		return err
	}
	if !complete {
		return &ExitError{Code: 2}
	}
	return nil
}
