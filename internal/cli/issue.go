package cli

import (
	"context"
	"fmt"

	"github.com/andywolf/speclinear/internal/linear"
	"github.com/spf13/cobra"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Read and modify issues",
}

var issueShowCmd = &cobra.Command{
	Use:   "show <id-or-identifier>",
	Short: "Show an issue with its labels, relations and description",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			issue, err := s.queries.GetIssue(ctx, args[0])
			if err != nil {
				return err
			}
			return s.out.Issue(issue)
		})
	},
}

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue",
	Long: `Create an issue and print it as stored by Linear.

Label and state flags accept names from the team config or raw ids.

Example:
  speclinear issue create --title "Add retry" --label bug --priority high`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			in, err := issueCreateInput(cmd, s)
			if err != nil {
				return err
			}
			issue, err := s.mutations.CreateIssue(ctx, in)
			if err != nil {
				return err
			}
			return s.out.Issue(issue)
		})
	},
}

var issueUpdateCmd = &cobra.Command{
	Use:   "update <id-or-identifier>",
	Short: "Update the given fields of an issue",
	Long: `Update an issue. Only flags that are set are sent; --label replaces the
whole label set.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			in, err := issueUpdateInput(cmd, s)
			if err != nil {
				return err
			}
			issue, err := s.mutations.UpdateIssue(ctx, args[0], in)
			if err != nil {
				return err
			}
			return s.out.Issue(issue)
		})
	},
}

var issueSearchCmd = &cobra.Command{
	Use:   "search [text]",
	Short: "Search issues by text and filters",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			search, err := issueSearchInput(cmd, s, args)
			if err != nil {
				return err
			}
			issues, err := s.queries.SearchIssues(ctx, search)
			if err != nil {
				return err
			}
			return s.out.Issues(issues)
		})
	},
}

var issueCommentsCmd = &cobra.Command{
	Use:   "comments <id-or-identifier>",
	Short: "List an issue's comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			comments, err := s.queries.GetIssueComments(ctx, args[0])
			if err != nil {
				return err
			}
			return s.out.Comments(comments)
		})
	},
}

var issueCommentCmd = &cobra.Command{
	Use:   "comment <id-or-identifier> <body>",
	Short: "Add a markdown comment to an issue",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			c, err := s.mutations.CreateComment(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return s.out.Comment(c)
		})
	},
}

var issueLabelCmd = &cobra.Command{
	Use:   "label",
	Short: "Add or remove a single label",
}

var issueLabelAddCmd = &cobra.Command{
	Use:   "add <id-or-identifier> <label>",
	Short: "Add a label to an issue (no-op if already present)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			return changeLabel(ctx, s, args[0], args[1], s.mutations.AddIssueLabel)
		})
	},
}

var issueLabelRemoveCmd = &cobra.Command{
	Use:   "remove <id-or-identifier> <label>",
	Short: "Remove a label from an issue (no-op if absent)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			return changeLabel(ctx, s, args[0], args[1], s.mutations.RemoveIssueLabel)
		})
	},
}

var issueStateCmd = &cobra.Command{
	Use:   "state <id-or-identifier> <state-name>",
	Short: "Move an issue to a workflow state named in the team config",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			issue, err := s.mutations.TransitionIssue(ctx, args[0], args[1])
			if err != nil {
				return err
			}
			return s.out.Issue(issue)
		})
	},
}

func init() {
	rootCmd.AddCommand(issueCmd)
	issueCmd.AddCommand(issueShowCmd, issueCreateCmd, issueUpdateCmd, issueSearchCmd,
		issueCommentsCmd, issueCommentCmd, issueLabelCmd, issueStateCmd)
	issueLabelCmd.AddCommand(issueLabelAddCmd, issueLabelRemoveCmd)

	issueCreateFlags(issueCreateCmd)
	_ = issueCreateCmd.MarkFlagRequired("title")
	issueUpdateFlags(issueUpdateCmd)

	f := issueSearchCmd.Flags()
	f.String("project", "", "Project id")
	f.StringSlice("label", nil, "Label name or id (repeatable)")
	f.StringSlice("state", nil, "Workflow state name or id (repeatable)")
}

func issueCreateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("title", "", "Issue title (required)")
	f.String("description", "", "Markdown description")
	f.String("project", "", "Project id")
	f.String("milestone", "", "Project milestone id")
	f.String("priority", "none", "Priority: none, urgent, high, medium, low or 0-4")
	f.StringSlice("label", nil, "Label name or id (repeatable)")
	f.String("state", "", "Workflow state name or id")
	f.String("assignee", "", "Assignee user id")
}

func issueUpdateFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("title", "", "New title")
	f.String("description", "", "New markdown description")
	f.String("milestone", "", "Project milestone id")
	f.String("priority", "", "Priority: none, urgent, high, medium, low or 0-4")
	f.StringSlice("label", nil, "Replace labels with these names or ids (repeatable)")
	f.String("state", "", "Workflow state name or id")
	f.String("assignee", "", "Assignee user id")
}

func parsePriorityFlag(value string) (linear.Priority, error) {
	p, ok := linear.ParsePriority(value)
	if !ok {
		return linear.PriorityNone, fmt.Errorf("invalid priority %q", value)
	}
	return p, nil
}

func issueCreateInput(cmd *cobra.Command, s *session) (linear.CreateIssueInput, error) {
	f := cmd.Flags()
	var in linear.CreateIssueInput

	team, _ := f.GetString("team")
	teamID, err := s.teamID(team)
	if err != nil {
		return in, err
	}
	in.TeamID = teamID

	in.Title, _ = f.GetString("title")
	in.Description, _ = f.GetString("description")
	in.ProjectID, _ = f.GetString("project")
	in.MilestoneID, _ = f.GetString("milestone")
	in.AssigneeID, _ = f.GetString("assignee")

	priority, _ := f.GetString("priority")
	if in.Priority, err = parsePriorityFlag(priority); err != nil {
		return in, err
	}

	labels, _ := f.GetStringSlice("label")
	if len(labels) > 0 {
		if in.LabelIDs, err = s.resolveIDs(labels, (*linear.Config).LabelID); err != nil {
			return in, err
		}
	}

	state, _ := f.GetString("state")
	if in.StateID, err = s.resolveID(state, (*linear.Config).StateID); err != nil {
		return in, err
	}
	return in, nil
}

func issueUpdateInput(cmd *cobra.Command, s *session) (linear.UpdateIssueInput, error) {
	f := cmd.Flags()
	var in linear.UpdateIssueInput

	stringFlag := func(name string) *string {
		if !f.Changed(name) {
			return nil
		}
		v, _ := f.GetString(name)
		return &v
	}
	in.Title = stringFlag("title")
	in.Description = stringFlag("description")
	in.MilestoneID = stringFlag("milestone")
	in.AssigneeID = stringFlag("assignee")

	if f.Changed("priority") {
		v, _ := f.GetString("priority")
		p, err := parsePriorityFlag(v)
		if err != nil {
			return in, err
		}
		in.Priority = &p
	}

	if f.Changed("state") {
		v, _ := f.GetString("state")
		id, err := s.resolveID(v, (*linear.Config).StateID)
		if err != nil {
			return in, err
		}
		in.StateID = &id
	}

	if f.Changed("label") {
		labels, _ := f.GetStringSlice("label")
		ids, err := s.resolveIDs(labels, (*linear.Config).LabelID)
		if err != nil {
			return in, err
		}
		in.LabelIDs = ids
	}
	return in, nil
}

func issueSearchInput(cmd *cobra.Command, s *session, args []string) (linear.IssueSearch, error) {
	f := cmd.Flags()
	var search linear.IssueSearch
	var err error

	if len(args) > 0 {
		search.Text = args[0]
	}
	search.TeamID, _ = f.GetString("team")
	if search.TeamID == "" {
		search.TeamID = s.cfg.Linear.TeamID
	}
	search.ProjectID, _ = f.GetString("project")

	labels, _ := f.GetStringSlice("label")
	if len(labels) > 0 {
		if search.LabelIDs, err = s.resolveIDs(labels, (*linear.Config).LabelID); err != nil {
			return search, err
		}
	}
	states, _ := f.GetStringSlice("state")
	if len(states) > 0 {
		if search.StateIDs, err = s.resolveIDs(states, (*linear.Config).StateID); err != nil {
			return search, err
		}
	}
	return search, nil
}

func changeLabel(ctx context.Context, s *session, issueID, label string,
	apply func(context.Context, string, string) (*linear.Issue, error)) error {
	labelID, err := s.resolveID(label, (*linear.Config).LabelID)
	if err != nil {
		return err
	}
	issue, err := apply(ctx, issueID, labelID)
	if err != nil {
		return err
	}
	return s.out.Issue(issue)
}
