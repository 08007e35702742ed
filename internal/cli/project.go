package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/andywolf/speclinear/internal/linear"
	"github.com/spf13/cobra"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Read and modify projects",
}

var projectShowCmd = &cobra.Command{
	Use:   "show <project-id>",
	Short: "Show a project with its milestones and content",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			project, err := s.queries.GetProject(ctx, args[0])
			if err != nil {
				return err
			}
			return s.out.Project(project)
		})
	},
}

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	Long: `Create a project in one or more teams.

The long-form content can be read from a markdown file with --content-file.

Example:
  speclinear project create --name "Retry support" --content-file SPEC.md --status Planned`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			in, err := projectCreateInput(cmd, s)
			if err != nil {
				return err
			}
			project, err := s.mutations.CreateProject(ctx, in)
			if err != nil {
				return err
			}
			return s.out.Project(project)
		})
	},
}

var projectUpdateCmd = &cobra.Command{
	Use:   "update <project-id>",
	Short: "Update the given fields of a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			in, err := projectUpdateInput(cmd, s)
			if err != nil {
				return err
			}
			project, err := s.mutations.UpdateProject(ctx, args[0], in)
			if err != nil {
				return err
			}
			return s.out.Project(project)
		})
	},
}

var projectIssuesCmd = &cobra.Command{
	Use:   "issues <project-id>",
	Short: "List the issues in a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			issues, err := s.queries.GetProjectIssues(ctx, args[0])
			if err != nil {
				return err
			}
			return s.out.Issues(issues)
		})
	},
}

var projectPlanCmd = &cobra.Command{
	Use:   "plan <project-id>",
	Short: "Show the project's plan issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			issue, err := s.queries.FindPlanIssue(ctx, args[0])
			if err != nil {
				return err
			}
			if issue == nil {
				return &ExitError{Code: 3, Err: fmt.Errorf("project %s has no %q issue", args[0], linear.PlanTitlePrefix)}
			}
			return s.out.Issue(issue)
		})
	},
}

var projectPlanCreateCmd = &cobra.Command{
	Use:   "plan-create <project-id>",
	Short: "Create the project's plan issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withSession(cmd, func(ctx context.Context, s *session) error {
			team, _ := cmd.Flags().GetString("team")
			summary, _ := cmd.Flags().GetString("summary")
			issue, err := createPlanIssue(ctx, s, args[0], team, summary)
			if err != nil {
				return err
			}
			return s.out.Issue(issue)
		})
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectShowCmd, projectCreateCmd, projectUpdateCmd,
		projectIssuesCmd, projectPlanCmd, projectPlanCreateCmd)

	f := projectCreateCmd.Flags()
	f.String("name", "", "Project name (required)")
	f.StringSlice("teams", nil, "Team ids (defaults to the configured team)")
	f.String("description", "", "Short description")
	f.String("content-file", "", "Markdown file with the project content")
	f.String("status", "", "Project status name or id")
	_ = projectCreateCmd.MarkFlagRequired("name")

	f = projectUpdateCmd.Flags()
	f.String("name", "", "New name")
	f.String("description", "", "New short description")
	f.String("content-file", "", "Markdown file with the new project content")
	f.String("status", "", "Project status name or id")

	projectPlanCreateCmd.Flags().String("summary", "", "Plan issue description")
}

func readContentFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read content file: %w", err)
	}
	return string(data), nil
}

func projectCreateInput(cmd *cobra.Command, s *session) (linear.CreateProjectInput, error) {
	f := cmd.Flags()
	var in linear.CreateProjectInput
	var err error

	in.Name, _ = f.GetString("name")
	in.Description, _ = f.GetString("description")

	in.TeamIDs, _ = f.GetStringSlice("teams")
	if len(in.TeamIDs) == 0 {
		team, _ := f.GetString("team")
		id, err := s.teamID(team)
		if err != nil {
			return in, err
		}
		in.TeamIDs = []string{id}
	}

	if path, _ := f.GetString("content-file"); path != "" {
		if in.Content, err = readContentFile(path); err != nil {
			return in, err
		}
	}

	status, _ := f.GetString("status")
	if in.StatusID, err = s.resolveID(status, (*linear.Config).ProjectStatusID); err != nil {
		return in, err
	}
	return in, nil
}

func projectUpdateInput(cmd *cobra.Command, s *session) (linear.UpdateProjectInput, error) {
	f := cmd.Flags()
	var in linear.UpdateProjectInput

	if f.Changed("name") {
		v, _ := f.GetString("name")
		in.Name = &v
	}
	if f.Changed("description") {
		v, _ := f.GetString("description")
		in.Description = &v
	}
	if f.Changed("content-file") {
		path, _ := f.GetString("content-file")
		content, err := readContentFile(path)
		if err != nil {
			return in, err
		}
		in.Content = &content
	}
	if f.Changed("status") {
		v, _ := f.GetString("status")
		id, err := s.resolveID(v, (*linear.Config).ProjectStatusID)
		if err != nil {
			return in, err
		}
		in.StatusID = &id
	}
	return in, nil
}

// createPlanIssue creates the plan issue unless the project already has one.
func createPlanIssue(ctx context.Context, s *session, projectID, team, summary string) (*linear.Issue, error) {
	existing, err := s.queries.FindPlanIssue(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("project %s already has plan issue %s", projectID, existing.Identifier)
	}

	project, err := s.queries.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	teamID := team
	if teamID == "" && len(project.TeamIDs) > 0 && s.cfg.Linear.TeamID == "" {
		teamID = project.TeamIDs[0]
	}
	if teamID, err = s.teamID(teamID); err != nil {
		return nil, err
	}
	return s.mutations.CreatePlanIssue(ctx, project, teamID, summary)
}
